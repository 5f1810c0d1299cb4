// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"net/http"

	"go.astrophena.name/kothbot/internal/web"
)

func (e *engine) initRoutes() {
	e.mux = http.NewServeMux()

	e.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		web.RespondText(w, "OK")
	})
	e.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		web.RespondText(w, "ok")
	})
	e.mux.HandleFunc("GET /callback", e.bot.HandleVerify)
	e.mux.HandleFunc("POST /callback", e.bot.HandleWebhook)

	health := web.Health(e.mux)
	health.RegisterFunc("settings", e.settingsHealth)
}

// settingsHealth reports where settings are kept. Memory-only storage still
// serves requests, so it doesn't fail the check.
func (e *engine) settingsHealth() (status string, ok bool) {
	if e.settings.Persistent() {
		return "persistent", true
	}
	return "memory only, reset on restart", true
}
