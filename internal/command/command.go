// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package command parses inbound chat messages into bot commands.
package command

import (
	"strings"
	"unicode"

	"go.astrophena.name/kothbot/internal/lang"
	"go.astrophena.name/kothbot/internal/settings"
)

// Command is the result of parsing a message. It is one of [ForceTranslate],
// [UpdateSetting], [ShowSettings], [ShowHelp] or [PlainText].
type Command interface{ isCommand() }

// ForceTranslate translates Text in Direction regardless of the
// conversation mode.
type ForceTranslate struct {
	Direction lang.Direction
	Text      string
}

// UpdateSetting changes a conversation setting. Value is not validated.
type UpdateSetting struct {
	Field settings.Field
	Value string
}

// ShowSettings prints the settings of the conversation.
type ShowSettings struct{}

// ShowHelp prints the list of commands.
type ShowHelp struct{}

// PlainText is a message without a command.
type PlainText struct {
	Text string
}

func (ForceTranslate) isCommand() {}
func (UpdateSetting) isCommand()  {}
func (ShowSettings) isCommand()   {}
func (ShowHelp) isCommand()       {}
func (PlainText) isCommand()      {}

var (
	// Target language of the translation, not the source.
	translateCommands = map[string]lang.Direction{
		"/ko": lang.ThToKo,
		"/th": lang.KoToTh,
	}
	settingCommands = map[string]settings.Field{
		"/mode":   settings.FieldMode,
		"/formal": settings.FieldFormality,
		"/native": settings.FieldNative,
		"/tag":    settings.FieldTag,
	}
)

// Parse parses text into a [Command].
//
// The command token is matched case-insensitively after trimming
// surrounding whitespace. A known command with arguments of the wrong shape
// and any unknown slash command give [ShowHelp].
func Parse(text string) Command {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return PlainText{Text: text}
	}

	name, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		name, rest = text[:i], strings.TrimSpace(text[i:])
	}
	name = strings.ToLower(name)

	if dir, ok := translateCommands[name]; ok {
		if rest == "" {
			return ShowHelp{}
		}
		return ForceTranslate{Direction: dir, Text: rest}
	}

	if field, ok := settingCommands[name]; ok {
		args := strings.Fields(rest)
		if len(args) != 1 {
			return ShowHelp{}
		}
		return UpdateSetting{Field: field, Value: args[0]}
	}

	if name == "/show" && rest == "" {
		return ShowSettings{}
	}
	return ShowHelp{}
}
