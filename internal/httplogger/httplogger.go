// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package httplogger provides a http.RoundTripper middleware that traces
// outgoing HTTP requests at debug level.
//
// Each request is logged twice, when it starts and when it ends, through the
// logger carried by the request context. The trace attribute draws a column
// per in-flight request, so overlapping calls (a translation retry racing a
// reply, for example) can be told apart.
package httplogger

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.astrophena.name/kothbot/internal/logger"
)

// New returns a http.RoundTripper that logs requests made through t. If t is
// nil, [http.DefaultTransport] is used.
func New(t http.RoundTripper) http.RoundTripper {
	if t == nil {
		t = http.DefaultTransport
	}
	return &loggingTransport{transport: t}
}

type loggingTransport struct {
	transport http.RoundTripper
	mu        sync.Mutex
	active    []byte
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	t.mu.Lock()
	index := len(t.active)
	start := time.Now()
	logger.Debug(ctx, "http request",
		slog.String("trace", string(t.active)+"+"),
		slog.String("method", r.Method),
		slog.String("url", redactURL(r)),
	)
	t.active = append(t.active, '|')
	t.mu.Unlock()

	resp, err := t.transport.RoundTrip(r)

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Duration("duration", time.Since(start)),
	}
	if resp != nil {
		attrs = append(attrs, slog.Int("status", resp.StatusCode))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
	}

	t.mu.Lock()
	t.active[index] = '-'
	logger.Debug(ctx, "http response", append([]slog.Attr{slog.String("trace", string(t.active))}, attrs...)...)
	t.active[index] = ' '
	n := len(t.active)
	for n > 0 && t.active[n-1] == ' ' {
		n--
	}
	t.active = t.active[:n]
	t.mu.Unlock()

	return resp, err
}

// redactURL drops the query string, which may carry API keys.
func redactURL(r *http.Request) string {
	u := *r.URL
	if u.RawQuery != "" {
		u.RawQuery = "[REDACTED]"
	}
	return u.String()
}
