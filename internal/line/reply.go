// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package line

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/kothbot/internal/request"
	"go.astrophena.name/kothbot/internal/retry"
)

// DefaultBaseURL is the Messaging API endpoint used when [Client.BaseURL] is
// empty.
const DefaultBaseURL = "https://api.line.me"

// MaxTextLength is the number of characters a reply is truncated to. LINE
// allows 5000.
const MaxTextLength = 4900

// Default timeouts of [Client].
const (
	DefaultConnectTimeout   = 5 * time.Second
	DefaultReadTimeout      = 10 * time.Second
	DefaultRetryReadTimeout = 30 * time.Second
)

// ErrReply is matched by errors returned by [Client.Reply].
var ErrReply = errors.New("reply failed")

// Client sends replies through the Messaging API.
type Client struct {
	// Token is the channel access token.
	Token string
	// BaseURL is an optional API endpoint. Defaults to DefaultBaseURL.
	BaseURL string
	// HTTPClient is an optional HTTP client. Use NewHTTPClient to bound the
	// time spent connecting. Defaults to request.DefaultClient.
	HTTPClient *http.Client
	// ReadTimeout bounds the first attempt. Defaults to DefaultReadTimeout.
	ReadTimeout time.Duration
	// RetryReadTimeout bounds the second attempt, made only when the first
	// one timed out waiting for the response. Defaults to
	// DefaultRetryReadTimeout.
	RetryReadTimeout time.Duration
	// Scrubber is an optional strings.Replacer that scrubs unwanted data from
	// error messages.
	Scrubber *strings.Replacer
}

// NewHTTPClient returns a HTTP client that gives up connecting, including
// the TLS handshake, after connectTimeout.
func NewHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout == 0 {
		connectTimeout = DefaultConnectTimeout
	}
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: connectTimeout,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reply sends text as a reply to the event with replyToken. Text longer than
// MaxTextLength is truncated. Errors match [ErrReply].
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	policy := retry.Policy{
		Name:         "reply",
		Timeout:      cmp.Or(c.ReadTimeout, DefaultReadTimeout),
		RetryTimeout: cmp.Or(c.RetryReadTimeout, DefaultRetryReadTimeout),
		Retries:      1,
		Retryable:    retry.IsReadTimeout,
	}

	_, err := retry.Do(ctx, policy, func(ctx context.Context) (request.IgnoreResponse, error) {
		return request.Make[request.IgnoreResponse](ctx, request.Params{
			Method: http.MethodPost,
			URL:    strings.TrimSuffix(baseURL, "/") + "/v2/bot/message/reply",
			Headers: map[string]string{
				"Authorization": "Bearer " + c.Token,
			},
			Body: replyRequest{
				ReplyToken: replyToken,
				Messages:   []textMessage{{Type: "text", Text: Truncate(text, MaxTextLength)}},
			},
			HTTPClient: c.HTTPClient,
			Scrubber:   c.Scrubber,
		})
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReply, err)
	}
	return nil
}

// Truncate returns s cut to at most n characters.
func Truncate(s string, n int) string {
	var i, count int
	for i = range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
