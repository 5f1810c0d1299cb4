// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/kothbot/internal/logger"
	"go.astrophena.name/kothbot/internal/testutil"
)

func TestRespondError(t *testing.T) {
	cases := map[string]struct {
		err        error
		json       bool
		wantStatus int
		wantInBody string
		wantToLog  bool
	}{
		"404": {
			err:        ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantInBody: "404 Not Found",
		},
		"401 (wrapped)": {
			err:        fmt.Errorf("bad signature: %w", ErrUnauthorized),
			wantStatus: http.StatusUnauthorized,
			wantInBody: "401 Unauthorized",
		},
		"unknown error is 500": {
			err:        errors.New("something broke"),
			wantStatus: http.StatusInternalServerError,
			wantInBody: "500 Internal Server Error",
			wantToLog:  true,
		},
		"JSON 401": {
			err:        fmt.Errorf("bad signature: %w", ErrUnauthorized),
			json:       true,
			wantStatus: http.StatusUnauthorized,
			wantInBody: `"error": "bad signature: unauthorized"`,
		},
		"JSON 500": {
			err:        errors.New("something broke"),
			json:       true,
			wantStatus: http.StatusInternalServerError,
			wantInBody: `"status": "error"`,
			wantToLog:  true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var logged bytes.Buffer
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(logger.Put(r.Context(), logger.New(&logged, false)))
			w := httptest.NewRecorder()

			if tc.json {
				RespondJSONError(w, r, tc.err)
			} else {
				RespondError(w, r, tc.err)
			}

			testutil.AssertEqual(t, w.Code, tc.wantStatus)
			if body := w.Body.String(); !strings.Contains(body, tc.wantInBody) {
				t.Errorf("body %q does not contain %q", body, tc.wantInBody)
			}
			testutil.AssertEqual(t, logged.Len() > 0, tc.wantToLog)
		})
	}
}

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, map[string]string{"status": "ok"})
	testutil.AssertEqual(t, w.Header().Get("Content-Type"), "application/json")
	testutil.AssertEqual(t, w.Body.String(), "{\n  \"status\": \"ok\"\n}\n")

	w = httptest.NewRecorder()
	RespondJSON(w, make(chan int))
	testutil.AssertEqual(t, w.Code, http.StatusInternalServerError)
}
