// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package lang describes the two languages kothbot translates between and
// detects them by script.
package lang

import "strings"

// Lang is a supported natural language.
type Lang string

const (
	Korean Lang = "ko"
	Thai   Lang = "th"
)

// Name returns the English name of l.
func (l Lang) Name() string {
	switch l {
	case Korean:
		return "Korean"
	case Thai:
		return "Thai"
	}
	return string(l)
}

// Other returns the language l is translated into.
func (l Lang) Other() Lang {
	if l == Korean {
		return Thai
	}
	return Korean
}

// Direction is a pair of source and target languages.
type Direction struct {
	From, To Lang
}

var (
	// KoToTh translates Korean into Thai.
	KoToTh = Direction{From: Korean, To: Thai}
	// ThToKo translates Thai into Korean.
	ThToKo = Direction{From: Thai, To: Korean}
)

// Tag returns the short label of d, like "KO→TH".
func (d Direction) Tag() string {
	return strings.ToUpper(string(d.From)) + "→" + strings.ToUpper(string(d.To))
}

// String implements the [fmt.Stringer] interface.
func (d Direction) String() string { return d.Tag() }

// DirectionFrom returns the direction that translates from l into the other
// supported language.
func DirectionFrom(l Lang) Direction {
	return Direction{From: l, To: l.Other()}
}

// Detect reports which supported language text is written in, judging by
// script alone. Any Thai character makes the text Thai; otherwise any Hangul
// character makes it Korean. If neither script occurs, ok is false.
func Detect(text string) (l Lang, ok bool) {
	var hasHangul bool
	for _, r := range text {
		switch {
		case isThai(r):
			return Thai, true
		case isHangul(r):
			hasHangul = true
		}
	}
	if hasHangul {
		return Korean, true
	}
	return "", false
}

func isThai(r rune) bool { return r >= 0x0E00 && r <= 0x0E7F }

func isHangul(r rune) bool {
	return (r >= 0x1100 && r <= 0x11FF) || // Jamo
		(r >= 0x3130 && r <= 0x318F) || // compatibility Jamo
		(r >= 0xAC00 && r <= 0xD7A3) // syllables
}
