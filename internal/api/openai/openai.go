// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package openai provides a very minimal client for OpenAI-compatible chat
// completion APIs.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"go.astrophena.name/kothbot/internal/request"
	"go.astrophena.name/kothbot/internal/syncx"
	"go.astrophena.name/kothbot/internal/version"
)

// DefaultBaseURL is the API endpoint used when [Client.BaseURL] is empty.
const DefaultBaseURL = "https://api.openai.com/v1"

// Client holds configuration for interacting with the chat completions API.
type Client struct {
	// APIKey is the API key used for authentication.
	APIKey string
	// BaseURL is an optional API endpoint. Defaults to DefaultBaseURL. Any
	// OpenAI-compatible server can be used.
	BaseURL string
	// HTTPClient is an optional HTTP client to use for requests. Defaults to
	// request.DefaultClient.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs unwanted data from
	// error messages.
	Scrubber *strings.Replacer

	rc syncx.Lazy[*resty.Client]
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionParams is the request body of the chat completions API.
type ChatCompletionParams struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatCompletionResponse is the response of the chat completions API.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice is one of the generated completions.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Text returns the content of the first choice.
func (r *ChatCompletionResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

func (c *Client) resty() *resty.Client {
	return c.rc.Get(func() *resty.Client {
		hc := c.HTTPClient
		if hc == nil {
			hc = request.DefaultClient
		}
		return resty.NewWithClient(hc).
			SetHeader("User-Agent", version.UserAgent())
	})
}

// CreateChatCompletion sends params to the chat completions API. A response
// with an error status is returned as [*request.StatusError].
func (c *Client) CreateChatCompletion(ctx context.Context, params ChatCompletionParams) (*ChatCompletionResponse, error) {
	if params.Model == "" {
		return nil, errors.New("model shouldn't be empty")
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	url := strings.TrimSuffix(baseURL, "/") + "/chat/completions"

	var out ChatCompletionResponse
	res, err := c.resty().R().
		SetContext(ctx).
		SetAuthToken(c.APIKey).
		SetBody(params).
		SetResult(&out).
		Post(url)
	if err != nil {
		return nil, request.ScrubErr(err, c.Scrubber)
	}
	if res.IsError() {
		return nil, request.ScrubErr(&request.StatusError{
			Method:     http.MethodPost,
			URL:        url,
			StatusCode: res.StatusCode(),
			Body:       res.Body(),
		}, c.Scrubber)
	}
	return &out, nil
}
