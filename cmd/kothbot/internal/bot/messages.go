// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"strings"

	"go.astrophena.name/kothbot/internal/settings"
	"go.astrophena.name/kothbot/internal/translate"
)

// Every message users see is written in both Korean and Thai.

const helpText = `번역봇 명령어 / คำสั่งบอทแปลภาษา
/ko <문장>: 한국어로 번역 / แปลเป็นภาษาเกาหลี
/th <문장>: 태국어로 번역 / แปลเป็นภาษาไทย
/mode auto | ko2th | th2ko | off: 번역 모드 / โหมดการแปล
/formal auto | casual | formal: 말투 / ระดับภาษา
/native on | off: 원문 함께 표시 / แสดงข้อความต้นฉบับ
/tag on | off: 번역 방향 표시 / แสดงทิศทางการแปล
/show: 현재 설정 / การตั้งค่าปัจจุบัน
/help: 도움말 / วิธีใช้`

const apologyText = `번역에 실패했습니다. 잠시 후 다시 시도해 주세요.
ขออภัย แปลไม่สำเร็จ กรุณาลองใหม่อีกครั้ง`

const persistFailedText = `설정을 저장하지 못했습니다. 잠시 후 다시 시도해 주세요.
บันทึกการตั้งค่าไม่สำเร็จ กรุณาลองใหม่อีกครั้ง`

func invalidValueText(err error) string {
	return "⚠️ " + err.Error() + "\n\n" + helpText
}

// commandName maps fields back to the commands that change them.
var commandName = map[settings.Field]string{
	settings.FieldMode:      "/mode",
	settings.FieldFormality: "/formal",
	settings.FieldNative:    "/native",
	settings.FieldTag:       "/tag",
}

func confirmationText(field settings.Field, st settings.Settings) string {
	return "설정 완료 / ตั้งค่าแล้ว: " + commandName[field] + " " + fieldValue(field, st)
}

func summaryText(st settings.Settings) string {
	var sb strings.Builder
	sb.WriteString("현재 설정 / การตั้งค่าปัจจุบัน")
	for _, f := range []settings.Field{settings.FieldMode, settings.FieldFormality, settings.FieldNative, settings.FieldTag} {
		sb.WriteString("\n")
		sb.WriteString(commandName[f])
		sb.WriteString(": ")
		sb.WriteString(fieldValue(f, st))
	}
	return sb.String()
}

func fieldValue(field settings.Field, st settings.Settings) string {
	switch field {
	case settings.FieldMode:
		return string(st.Mode)
	case settings.FieldFormality:
		return string(st.Formality)
	case settings.FieldNative:
		return onOff(st.ShowNative)
	case settings.FieldTag:
		return onOff(st.ShowTag)
	}
	return ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// compose builds the reply for a translation: an optional direction tag
// line, the translation and, optionally, the original text after a blank
// line.
func compose(res translate.Result, original string, st settings.Settings) string {
	var sb strings.Builder
	if st.ShowTag {
		sb.WriteString(res.Direction.Tag())
		sb.WriteString("\n")
	}
	sb.WriteString(res.Text)
	if st.ShowNative {
		sb.WriteString("\n\n")
		sb.WriteString(original)
	}
	return sb.String()
}
