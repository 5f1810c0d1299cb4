// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.astrophena.name/kothbot/internal/logger"
)

// ListenAndServeConfig is used to configure the HTTP server started by
// [ListenAndServe].
//
// All fields of ListenAndServeConfig can't be modified after [ListenAndServe]
// is called.
type ListenAndServeConfig struct {
	// Addr is a network address to listen on (in the form of "host:port").
	Addr string
	// Mux is a http.ServeMux to serve.
	Mux *http.ServeMux
	// Ready is an optional function called when the server is ready to accept
	// connections.
	Ready func()
}

var (
	errNoAddr = errors.New("c.Addr is empty")
	errNilMux = errors.New("c.Mux is nil")
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// ListenAndServe starts the HTTP server based on the provided
// [ListenAndServeConfig] and serves until ctx is done, then shuts down
// gracefully.
//
// Request contexts carry the logger from ctx, but are not canceled when ctx
// is, so in-flight requests can finish during shutdown.
func ListenAndServe(ctx context.Context, c *ListenAndServeConfig) error {
	if c.Addr == "" {
		return errNoAddr
	}
	if c.Mux == nil {
		return errNilMux
	}

	l, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer l.Close()
	logger.Info(ctx, "listening", slog.String("addr", l.Addr().String()))

	baseCtx := context.WithoutCancel(ctx)
	s := &http.Server{
		Handler:           c.Mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog: log.New(logger.Logf(func(format string, args ...any) {
			logger.Warn(ctx, fmt.Sprintf(format, args...))
		}), "", 0),
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)

	go func() {
		if err := s.Serve(l); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}
	}()

	if c.Ready != nil {
		c.Ready()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info(ctx, "gracefully shutting down")

		shutdownCtx, cancel := context.WithTimeout(baseCtx, shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}
