// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.astrophena.name/kothbot/internal/cli"
	"go.astrophena.name/kothbot/internal/logger"
	"go.astrophena.name/kothbot/internal/request"
	"go.astrophena.name/kothbot/internal/version"
	"go.astrophena.name/kothbot/internal/web"
)

// selfPing continuously pings kothbot to prevent its Render app from
// sleeping.
func (e *engine) selfPing(ctx context.Context, interval time.Duration) {
	env := cli.GetEnv(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			url := env.Getenv("RENDER_EXTERNAL_URL")
			if url == "" {
				logger.Warn(ctx, "selfPing: RENDER_EXTERNAL_URL is not set; are you really on Render?")
				return
			}
			e.checkHealth(ctx, url)
		case <-ctx.Done():
			return
		}
	}
}

func (e *engine) checkHealth(ctx context.Context, url string) {
	health, err := request.Make[web.HealthResponse](ctx, request.Params{
		Method: http.MethodGet,
		URL:    url + "/health",
		Headers: map[string]string{
			"User-Agent": version.UserAgent(),
		},
		HTTPClient: e.httpClient(request.DefaultClient),
		Scrubber:   e.scrubber,
	})
	if err != nil {
		logger.Warn(ctx, "selfPing: request failed", slog.Any("err", err))
		return
	}
	if !health.OK {
		logger.Warn(ctx, "selfPing: unhealthy", slog.Any("checks", health.Checks))
	}
}

// ping sends a heartbeat to the PING_URL.
func (e *engine) ping(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.heartbeat(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (e *engine) heartbeat(ctx context.Context) {
	_, err := request.Make[request.IgnoreResponse](ctx, request.Params{
		Method: http.MethodGet,
		URL:    e.pingURL,
		Headers: map[string]string{
			"User-Agent": version.UserAgent(),
		},
		HTTPClient: e.httpClient(request.DefaultClient),
		Scrubber:   e.scrubber,
	})
	if err != nil {
		logger.Warn(ctx, "ping: failed to send heartbeat", slog.Any("err", err))
	}
}
