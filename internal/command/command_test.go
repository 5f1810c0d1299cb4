// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package command

import (
	"testing"

	"go.astrophena.name/kothbot/internal/lang"
	"go.astrophena.name/kothbot/internal/settings"
	"go.astrophena.name/kothbot/internal/testutil"
)

func TestParse(t *testing.T) {
	cases := map[string]struct {
		in   string
		want Command
	}{
		"plain text": {
			in:   "  안녕하세요  ",
			want: PlainText{Text: "안녕하세요"},
		},
		"leading whitespace before command": {
			in:   "   /ko hello",
			want: ForceTranslate{Direction: lang.ThToKo, Text: "hello"},
		},
		"/ko translates into Korean": {
			in:   "/ko hello",
			want: ForceTranslate{Direction: lang.ThToKo, Text: "hello"},
		},
		"/th translates into Thai": {
			in:   "/th 안녕",
			want: ForceTranslate{Direction: lang.KoToTh, Text: "안녕"},
		},
		"case-insensitive command": {
			in:   "/TH 안녕 하세요",
			want: ForceTranslate{Direction: lang.KoToTh, Text: "안녕 하세요"},
		},
		"multiline text after command": {
			in:   "/ko\tbonjour\nmonde",
			want: ForceTranslate{Direction: lang.ThToKo, Text: "bonjour\nmonde"},
		},
		"/ko without text": {
			in:   "/ko   ",
			want: ShowHelp{},
		},
		"/mode": {
			in:   "/mode ko2th",
			want: UpdateSetting{Field: settings.FieldMode, Value: "ko2th"},
		},
		"/formal": {
			in:   "/Formal polite",
			want: UpdateSetting{Field: settings.FieldFormality, Value: "polite"},
		},
		"/native": {
			in:   "/native on",
			want: UpdateSetting{Field: settings.FieldNative, Value: "on"},
		},
		"/tag": {
			in:   "/tag off",
			want: UpdateSetting{Field: settings.FieldTag, Value: "off"},
		},
		"invalid token is passed through": {
			in:   "/tag banana",
			want: UpdateSetting{Field: settings.FieldTag, Value: "banana"},
		},
		"/mode without argument": {
			in:   "/mode",
			want: ShowHelp{},
		},
		"/mode with two arguments": {
			in:   "/mode ko2th now",
			want: ShowHelp{},
		},
		"/show": {
			in:   "/show",
			want: ShowSettings{},
		},
		"/show with argument": {
			in:   "/show all",
			want: ShowHelp{},
		},
		"/help": {
			in:   "/HELP",
			want: ShowHelp{},
		},
		"unknown command": {
			in:   "/translate hello",
			want: ShowHelp{},
		},
		"prefix of known command": {
			in:   "/kor hello",
			want: ShowHelp{},
		},
		"bare slash": {
			in:   "/",
			want: ShowHelp{},
		},
		"empty": {
			in:   "",
			want: PlainText{Text: ""},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, Parse(tc.in), tc.want)
		})
	}
}
