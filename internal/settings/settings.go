// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package settings holds per-conversation translation settings.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"go.astrophena.name/kothbot/internal/lang"
)

// Settings is the configuration of a single conversation.
type Settings struct {
	Mode       Mode      `json:"mode"`
	Formality  Formality `json:"formality"`
	ShowNative bool      `json:"show_native"`
	ShowTag    bool      `json:"show_tag"`
}

// Default returns the settings of a conversation that was never configured.
func Default() Settings {
	return Settings{
		Mode:      ModeAuto,
		Formality: FormalityAuto,
	}
}

// Mode selects when and in which direction plain messages are translated.
type Mode string

const (
	// ModeAuto detects the source language of every message.
	ModeAuto Mode = "auto"
	// ModeKoToTh translates every message from Korean to Thai.
	ModeKoToTh Mode = "ko2th"
	// ModeThToKo translates every message from Thai to Korean.
	ModeThToKo Mode = "th2ko"
	// ModeOff disables translation of plain messages. Explicit /ko and /th
	// commands still work.
	ModeOff Mode = "off"
)

// Direction returns the direction forced by m, if any.
func (m Mode) Direction() (lang.Direction, bool) {
	switch m {
	case ModeKoToTh:
		return lang.KoToTh, true
	case ModeThToKo:
		return lang.ThToKo, true
	}
	return lang.Direction{}, false
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Formality is a register hint passed to the translator.
type Formality string

const (
	FormalityAuto   Formality = "auto"
	FormalityCasual Formality = "casual"
	FormalityFormal Formality = "formal"
)

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (f *Formality) UnmarshalText(b []byte) error {
	v, err := ParseFormality(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Field names a mutable part of [Settings].
type Field string

const (
	FieldMode      Field = "mode"
	FieldFormality Field = "formality"
	FieldNative    Field = "native"
	FieldTag       Field = "tag"
)

// Options returns the canonical values accepted for f, separated by " | ".
func (f Field) Options() string {
	switch f {
	case FieldMode:
		return "auto | ko2th | th2ko | off"
	case FieldFormality:
		return "auto | casual | formal"
	case FieldNative, FieldTag:
		return "on | off"
	}
	return ""
}

var (
	// ErrInvalidValue is matched by errors returned for values outside of the
	// domain of a field.
	ErrInvalidValue = errors.New("invalid setting value")
	// ErrPersist is matched by errors returned when updated settings could
	// not be written to the backing store.
	ErrPersist = errors.New("saving settings failed")
)

// InvalidValueError describes a rejected setting value.
type InvalidValueError struct {
	Field Field
	Value string
}

func (e *InvalidValueError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid setting value %q", e.Value)
	}
	return fmt.Sprintf("invalid value %q for %s (want %s)", e.Value, e.Field, e.Field.Options())
}

// Is makes [errors.Is] match [ErrInvalidValue].
func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidValue }

var modeAliases = map[string]Mode{
	"auto":  ModeAuto,
	"off":   ModeOff,
	"ko2th": ModeKoToTh,
	"ko-th": ModeKoToTh,
	"ko>th": ModeKoToTh,
	"ko→th": ModeKoToTh,
	"koth":  ModeKoToTh,
	"th2ko": ModeThToKo,
	"th-ko": ModeThToKo,
	"th>ko": ModeThToKo,
	"th→ko": ModeThToKo,
	"thko":  ModeThToKo,
}

// ParseMode parses a case-insensitive mode token.
func ParseMode(s string) (Mode, error) {
	if m, ok := modeAliases[normalize(s)]; ok {
		return m, nil
	}
	return "", &InvalidValueError{Field: FieldMode, Value: s}
}

// ParseFormality parses a case-insensitive formality token.
func ParseFormality(s string) (Formality, error) {
	switch normalize(s) {
	case "auto":
		return FormalityAuto, nil
	case "casual", "informal":
		return FormalityCasual, nil
	case "formal", "polite":
		return FormalityFormal, nil
	}
	return "", &InvalidValueError{Field: FieldFormality, Value: s}
}

// ParseToggle parses a case-insensitive boolean token.
func ParseToggle(s string) (bool, error) {
	switch normalize(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, &InvalidValueError{Value: s}
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// With returns a copy of s with field set to the parsed value.
func (s Settings) With(field Field, value string) (Settings, error) {
	switch field {
	case FieldMode:
		m, err := ParseMode(value)
		if err != nil {
			return s, err
		}
		s.Mode = m
	case FieldFormality:
		f, err := ParseFormality(value)
		if err != nil {
			return s, err
		}
		s.Formality = f
	case FieldNative, FieldTag:
		on, err := ParseToggle(value)
		if err != nil {
			return s, &InvalidValueError{Field: field, Value: value}
		}
		if field == FieldNative {
			s.ShowNative = on
		} else {
			s.ShowTag = on
		}
	default:
		return s, &InvalidValueError{Field: field, Value: value}
	}
	return s, nil
}
