// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd signals readiness and keeps the watchdog timestamp fresh
// when the process runs as a systemd service. Outside of systemd every
// function is a no-op.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"go.astrophena.name/kothbot/internal/logger"
)

// State defines a sd-notify protocol state.
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
type State string

const (
	// Ready tells the service manager that service startup is finished.
	Ready State = "READY=1"
	// Stopping tells the service manager that the service is shutting down.
	Stopping State = "STOPPING=1"
	// Watchdog tells the service manager to update the watchdog timestamp.
	Watchdog State = "WATCHDOG=1"
)

// Notify sends state to the socket named by NOTIFY_SOCKET, as returned by
// getenv. Failures are logged with the logger carried by ctx.
func Notify(ctx context.Context, getenv func(string) string, state State) {
	addr := &net.UnixAddr{
		Net:  "unixgram",
		Name: getenv("NOTIFY_SOCKET"),
	}
	if addr.Name == "" {
		return
	}

	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		logger.Warn(ctx, "systemd: notify failed", slog.String("state", string(state)), slog.Any("err", err))
		return
	}
	defer conn.Close()

	if _, err = conn.Write([]byte(state)); err != nil {
		logger.Warn(ctx, "systemd: notify failed", slog.String("state", string(state)), slog.Any("err", err))
	}
}

// WatchdogLoop sends [Watchdog] at half of the interval from WATCHDOG_USEC
// until ctx is done. It returns immediately if the watchdog is not enabled.
func WatchdogLoop(ctx context.Context, getenv func(string) string) {
	if getenv("WATCHDOG_USEC") == "" {
		return
	}

	interval, err := watchdogInterval(getenv("WATCHDOG_USEC"))
	if err != nil {
		logger.Warn(ctx, "systemd: watchdog disabled", slog.Any("err", err))
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			Notify(ctx, getenv, Watchdog)
		case <-ctx.Done():
			return
		}
	}
}

func watchdogInterval(usec string) (time.Duration, error) {
	s, err := strconv.Atoi(usec)
	if err != nil {
		return 0, fmt.Errorf("converting WATCHDOG_USEC: %w", err)
	}
	if s <= 0 {
		return 0, errors.New("WATCHDOG_USEC must be a positive number")
	}
	return time.Duration(s) * time.Microsecond, nil
}
