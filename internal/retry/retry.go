// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package retry calls functions with a per-attempt timeout and a bounded
// number of retries.
package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"go.astrophena.name/kothbot/internal/logger"
	"go.astrophena.name/kothbot/internal/request"
)

// Policy describes how [Do] calls a function.
type Policy struct {
	// Name is used in log messages.
	Name string
	// Timeout bounds the first attempt. Zero means no timeout.
	Timeout time.Duration
	// RetryTimeout bounds every later attempt. Zero means Timeout.
	RetryTimeout time.Duration
	// Retries is the number of attempts made after the first one fails.
	Retries int
	// Retryable reports whether a failed attempt may be retried. If nil,
	// nothing is retried.
	Retryable func(error) bool
}

// Do calls f until it succeeds, the error is not retryable, the parent
// context is done or p.Retries retries were made. Every attempt gets its own
// context with the timeout from p. The error of the last attempt is returned.
func Do[T any](ctx context.Context, p Policy, f func(context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		timeout := p.Timeout
		if attempt > 0 && p.RetryTimeout > 0 {
			timeout = p.RetryTimeout
		}

		res, err := call(ctx, timeout, f)
		if err == nil {
			return res, nil
		}
		if attempt >= p.Retries || ctx.Err() != nil || p.Retryable == nil || !p.Retryable(err) {
			return res, err
		}

		logger.Warn(ctx, "retrying after failure",
			slog.String("call", p.Name),
			slog.Int("attempt", attempt+1),
			slog.Any("err", err),
		)
	}
}

func call[T any](ctx context.Context, timeout time.Duration, f func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return f(ctx)
}

// IsTimeout reports whether err is caused by a deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsReadTimeout reports whether err is a timeout that happened after the
// connection was established, while waiting for the response.
func IsReadTimeout(err error) bool {
	return IsTimeout(err) && !isConnectError(err)
}

// IsTransient reports whether err is likely to go away on its own: a
// timeout, a network failure or a rate limiting or server-side HTTP status.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if IsTimeout(err) {
		return true
	}
	var se *request.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var oe *net.OpError
	return errors.As(err, &oe) || errors.Is(err, io.ErrUnexpectedEOF)
}

// tlsHandshakeTimeout is the message of the unexported error returned by
// [http.Transport] when TLSHandshakeTimeout expires.
const tlsHandshakeTimeout = "net/http: TLS handshake timeout"

// isConnectError reports whether err happened before the connection was
// established: while dialing or during the TLS handshake.
func isConnectError(err error) bool {
	var oe *net.OpError
	if errors.As(err, &oe) && oe.Op == "dial" {
		return true
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if e.Error() == tlsHandshakeTimeout {
			return true
		}
	}
	return false
}
