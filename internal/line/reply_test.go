// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package line

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.astrophena.name/kothbot/internal/request"
	"go.astrophena.name/kothbot/internal/testutil"
)

func TestReply(t *testing.T) {
	var got replyRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST api.line.me/v2/bot/message/reply", func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Header.Get("Authorization"), "Bearer token")
		testutil.AssertEqual(t, r.Header.Get("Content-Type"), "application/json")
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
		}
		got = testutil.UnmarshalJSON[replyRequest](t, b)
		io.WriteString(w, "{}")
	})

	c := &Client{Token: "token", HTTPClient: testutil.MockHTTPClient(mux)}
	long := strings.Repeat("가", MaxTextLength+100)
	if err := c.Reply(context.Background(), "reply-token", long); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, got.ReplyToken, "reply-token")
	testutil.AssertEqual(t, len(got.Messages), 1)
	testutil.AssertEqual(t, got.Messages[0].Type, "text")
	testutil.AssertEqual(t, got.Messages[0].Text, strings.Repeat("가", MaxTextLength))
}

func TestReplyRetriesOnReadTimeout(t *testing.T) {
	var attempts atomic.Int32
	c := &Client{
		Token:            "token",
		ReadTimeout:      20 * time.Millisecond,
		RetryReadTimeout: time.Second,
		HTTPClient: testutil.MockHTTPClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) == 1 {
				// First attempt stalls until the client gives up.
				<-r.Context().Done()
				return
			}
			io.WriteString(w, "{}")
		})),
	}
	if err := c.Reply(context.Background(), "reply-token", "hi"); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, attempts.Load(), int32(2))
}

func TestReplyTimesOutTwice(t *testing.T) {
	var attempts atomic.Int32
	c := &Client{
		Token:            "token",
		ReadTimeout:      10 * time.Millisecond,
		RetryReadTimeout: 20 * time.Millisecond,
		HTTPClient: testutil.MockHTTPClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			<-r.Context().Done()
		})),
	}
	err := c.Reply(context.Background(), "reply-token", "hi")
	if !errors.Is(err, ErrReply) {
		t.Fatalf("want ErrReply, got %v", err)
	}
	testutil.AssertEqual(t, attempts.Load(), int32(2))
}

func TestReplyDoesNotRetryStatusErrors(t *testing.T) {
	var attempts atomic.Int32
	c := &Client{
		Token:    "secret-token",
		Scrubber: strings.NewReplacer("secret-token", "[EXPUNGED]"),
		HTTPClient: testutil.MockHTTPClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"message":"Invalid reply token secret-token"}`)
		})),
	}
	err := c.Reply(context.Background(), "expired", "hi")
	if !errors.Is(err, ErrReply) {
		t.Fatalf("want ErrReply, got %v", err)
	}
	var se *request.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want wrapped *request.StatusError, got %v", err)
	}
	testutil.AssertEqual(t, se.StatusCode, http.StatusBadRequest)
	testutil.AssertEqual(t, attempts.Load(), int32(1))
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("error message leaks the token: %v", err)
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(0)
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport %T", c.Transport)
	}
	testutil.AssertEqual(t, tr.TLSHandshakeTimeout, DefaultConnectTimeout)
}
