// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"go.astrophena.name/kothbot/internal/request"
	"go.astrophena.name/kothbot/internal/testutil"
)

func TestDo(t *testing.T) {
	errPermanent := errors.New("permanent")
	errFlaky := errors.New("flaky")
	retryFlaky := func(err error) bool { return errors.Is(err, errFlaky) }

	cases := map[string]struct {
		policy       Policy
		errs         []error
		wantErr      error
		wantAttempts int
	}{
		"success on first attempt": {
			policy:       Policy{Retries: 1, Retryable: retryFlaky},
			errs:         []error{nil},
			wantAttempts: 1,
		},
		"success on retry": {
			policy:       Policy{Retries: 1, Retryable: retryFlaky},
			errs:         []error{errFlaky, nil},
			wantAttempts: 2,
		},
		"retries are bounded": {
			policy:       Policy{Retries: 1, Retryable: retryFlaky},
			errs:         []error{errFlaky, errFlaky, nil},
			wantErr:      errFlaky,
			wantAttempts: 2,
		},
		"permanent error is not retried": {
			policy:       Policy{Retries: 3, Retryable: retryFlaky},
			errs:         []error{errPermanent, nil},
			wantErr:      errPermanent,
			wantAttempts: 1,
		},
		"nil Retryable never retries": {
			policy:       Policy{Retries: 3},
			errs:         []error{errFlaky, nil},
			wantErr:      errFlaky,
			wantAttempts: 1,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var attempts int
			res, err := Do(context.Background(), tc.policy, func(ctx context.Context) (int, error) {
				err := tc.errs[attempts]
				attempts++
				return attempts, err
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got error %v, want %v", err, tc.wantErr)
			}
			testutil.AssertEqual(t, attempts, tc.wantAttempts)
			testutil.AssertEqual(t, res, tc.wantAttempts)
		})
	}
}

func TestDoTimeouts(t *testing.T) {
	var deadlines []time.Duration
	p := Policy{
		Timeout:      50 * time.Millisecond,
		RetryTimeout: 100 * time.Millisecond,
		Retries:      1,
		Retryable:    IsTimeout,
	}
	_, err := Do(context.Background(), p, func(ctx context.Context) (struct{}, error) {
		d, ok := ctx.Deadline()
		if !ok {
			t.Fatal("attempt has no deadline")
		}
		deadlines = append(deadlines, time.Until(d))
		<-ctx.Done()
		return struct{}{}, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want context.DeadlineExceeded, got %v", err)
	}
	testutil.AssertEqual(t, len(deadlines), 2)
	if deadlines[0] > p.Timeout || deadlines[1] <= p.Timeout {
		t.Fatalf("unexpected attempt deadlines: %v", deadlines)
	}
}

func TestDoStopsWhenParentIsDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts int
	_, err := Do(ctx, Policy{Retries: 5, Retryable: func(error) bool { return true }}, func(ctx context.Context) (int, error) {
		attempts++
		cancel()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	testutil.AssertEqual(t, attempts, 1)
}

func TestPredicates(t *testing.T) {
	dialTimeout := &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded}
	readTimeout := &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}
	reset := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}

	cases := map[string]struct {
		err         error
		timeout     bool
		readTimeout bool
		transient   bool
	}{
		"deadline": {
			err:         fmt.Errorf("request: %w", context.DeadlineExceeded),
			timeout:     true,
			readTimeout: true,
			transient:   true,
		},
		"dial timeout": {
			err:       dialTimeout,
			timeout:   true,
			transient: true,
		},
		"TLS handshake timeout": {
			err:       &url.Error{Op: "Post", URL: "https://api.line.me/v2/bot/message/reply", Err: handshakeTimeoutError{}},
			timeout:   true,
			transient: true,
		},
		"read timeout": {
			err:         readTimeout,
			timeout:     true,
			readTimeout: true,
			transient:   true,
		},
		"connection reset": {
			err:       reset,
			transient: true,
		},
		"429": {
			err:       &request.StatusError{StatusCode: http.StatusTooManyRequests},
			transient: true,
		},
		"503": {
			err:       &request.StatusError{StatusCode: http.StatusServiceUnavailable},
			transient: true,
		},
		"400": {
			err: &request.StatusError{StatusCode: http.StatusBadRequest},
		},
		"canceled": {
			err: context.Canceled,
		},
		"other": {
			err: errors.New("bad response"),
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, IsTimeout(tc.err), tc.timeout)
			testutil.AssertEqual(t, IsReadTimeout(tc.err), tc.readTimeout)
			testutil.AssertEqual(t, IsTransient(tc.err), tc.transient)
		})
	}
}

// handshakeTimeoutError mimics the error http.Transport returns when the TLS
// handshake times out.
type handshakeTimeoutError struct{}

func (handshakeTimeoutError) Error() string   { return "net/http: TLS handshake timeout" }
func (handshakeTimeoutError) Timeout() bool   { return true }
func (handshakeTimeoutError) Temporary() bool { return true }
