// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Kothbot is a LINE bot that translates chat messages between Korean and Thai.

Add it to a group, a room or a one-on-one chat and every text message is
answered with its translation. The direction is detected from the script of
the message: anything with Thai letters is translated to Korean, anything
with Hangul is translated to Thai, and everything else is left alone.

# Usage

	$ kothbot [flags...]

Point the LINE webhook URL at https://<host>/callback.

# Commands

	/ko <text>       Translate text to Korean.
	/th <text>       Translate text to Thai.
	/mode <value>    auto | ko2th | th2ko | off
	/formal <value>  auto | casual | formal
	/native <value>  on | off (append the original text)
	/tag <value>     on | off (prefix the translation direction)
	/show            Show settings of this chat.
	/help            Show help.

Settings are kept per chat.

# Storage

Settings are stored in the first configured backend:

  - DATABASE_URL: PostgreSQL.
  - SQLITE_DB: SQLite database file.
  - DATA_DIR: settings.json file in this directory.

If none is set, settings are kept in memory and reset on every restart. A
warning is logged at startup and the /health endpoint reports it.

# Translation

The translation is done by an OpenAI-compatible chat completions API
(OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL) or by Gemini (GEMINI_KEY,
GEMINI_MODEL), selected with LLM_PROVIDER. If LLM_PROVIDER is not set, OpenAI
is used when OPENAI_API_KEY is set and Gemini otherwise.

# Endpoints

  - GET /: Returns "OK".
  - GET /health: Reports health in JSON.
  - GET /healthz: Returns "ok".
  - GET /callback: Returns "OK", for webhook verification.
  - POST /callback: Receives LINE webhook events.

When running on [Render], kothbot pings itself every 10 minutes to prevent
the service from sleeping. Set PING_URL to send a heartbeat to an external
monitor as well.

[Render]: https://render.com
*/
package main

import (
	_ "embed"

	"go.astrophena.name/kothbot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
