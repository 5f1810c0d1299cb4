// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package translate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.astrophena.name/kothbot/internal/api/google/gemini"
	"go.astrophena.name/kothbot/internal/api/openai"
	"go.astrophena.name/kothbot/internal/lang"
	"go.astrophena.name/kothbot/internal/request"
	"go.astrophena.name/kothbot/internal/settings"
	"go.astrophena.name/kothbot/internal/testutil"
)

type providerFunc func(ctx context.Context, system, text string) (string, error)

func (f providerFunc) Complete(ctx context.Context, system, text string) (string, error) {
	return f(ctx, system, text)
}

func ptr[T any](v T) *T { return &v }

func TestResolveDirection(t *testing.T) {
	cases := map[string]struct {
		req    Request
		want   lang.Direction
		wantOK bool
	}{
		"forced wins over mode": {
			req:    Request{Text: "hello", Mode: settings.ModeThToKo, Direction: ptr(lang.KoToTh)},
			want:   lang.KoToTh,
			wantOK: true,
		},
		"forced works when off": {
			req:    Request{Text: "hello", Mode: settings.ModeOff, Direction: ptr(lang.ThToKo)},
			want:   lang.ThToKo,
			wantOK: true,
		},
		"mode ko2th": {
			req:    Request{Text: "สวัสดี", Mode: settings.ModeKoToTh},
			want:   lang.KoToTh,
			wantOK: true,
		},
		"auto Korean": {
			req:    Request{Text: "안녕하세요", Mode: settings.ModeAuto},
			want:   lang.KoToTh,
			wantOK: true,
		},
		"auto Thai": {
			req:    Request{Text: "สวัสดีครับ", Mode: settings.ModeAuto},
			want:   lang.ThToKo,
			wantOK: true,
		},
		"auto Latin": {
			req: Request{Text: "hello there", Mode: settings.ModeAuto},
		},
		"off": {
			req: Request{Text: "안녕하세요", Mode: settings.ModeOff},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := tc.req.ResolveDirection()
			testutil.AssertEqual(t, ok, tc.wantOK)
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestTranslate(t *testing.T) {
	var gotSystem, gotText string
	c := &Client{
		Provider: providerFunc(func(ctx context.Context, system, text string) (string, error) {
			gotSystem, gotText = system, text
			return "  \"สวัสดีครับ\"\n", nil
		}),
	}
	res, err := c.Translate(context.Background(), Request{
		Text:      "안녕하세요",
		Mode:      settings.ModeAuto,
		Formality: settings.FormalityFormal,
	})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, res, Result{Text: "สวัสดีครับ", Direction: lang.KoToTh})
	testutil.AssertEqual(t, gotText, "안녕하세요")
	testutil.AssertEqual(t, gotSystem, SystemPrompt(lang.KoToTh, settings.FormalityFormal))
}

func TestTranslateNoDirection(t *testing.T) {
	var calls atomic.Int32
	c := &Client{
		Provider: providerFunc(func(ctx context.Context, system, text string) (string, error) {
			calls.Add(1)
			return "x", nil
		}),
	}
	_, err := c.Translate(context.Background(), Request{Text: "just latin text", Mode: settings.ModeAuto})
	if !errors.Is(err, ErrNoDirection) {
		t.Fatalf("want ErrNoDirection, got %v", err)
	}
	testutil.AssertEqual(t, calls.Load(), int32(0))
}

func TestTranslateTimesOutTwice(t *testing.T) {
	var calls atomic.Int32
	c := &Client{
		Timeout: 20 * time.Millisecond,
		Retries: 1,
		Provider: providerFunc(func(ctx context.Context, system, text string) (string, error) {
			calls.Add(1)
			<-ctx.Done()
			return "", ctx.Err()
		}),
	}
	_, err := c.Translate(context.Background(), Request{Text: "안녕", Mode: settings.ModeAuto})
	if !errors.Is(err, ErrTranslation) {
		t.Fatalf("want ErrTranslation, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want wrapped context.DeadlineExceeded, got %v", err)
	}
	testutil.AssertEqual(t, calls.Load(), int32(2))
}

func TestTranslateRecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	c := &Client{
		Retries: 1,
		Provider: providerFunc(func(ctx context.Context, system, text string) (string, error) {
			if calls.Add(1) == 1 {
				return "", &request.StatusError{StatusCode: http.StatusBadGateway}
			}
			return "안녕하세요", nil
		}),
	}
	res, err := c.Translate(context.Background(), Request{Text: "สวัสดี", Mode: settings.ModeAuto})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, res.Text, "안녕하세요")
	testutil.AssertEqual(t, calls.Load(), int32(2))
}

func TestTranslatePermanentFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := &Client{
		Retries: 1,
		Provider: providerFunc(func(ctx context.Context, system, text string) (string, error) {
			calls.Add(1)
			return "", &request.StatusError{StatusCode: http.StatusUnauthorized}
		}),
	}
	_, err := c.Translate(context.Background(), Request{Text: "สวัสดี", Mode: settings.ModeAuto})
	if !errors.Is(err, ErrTranslation) {
		t.Fatalf("want ErrTranslation, got %v", err)
	}
	testutil.AssertEqual(t, calls.Load(), int32(1))
}

func TestTranslateEmptyOutput(t *testing.T) {
	c := &Client{
		Provider: providerFunc(func(ctx context.Context, system, text string) (string, error) {
			return " ``` ``` ", nil
		}),
	}
	_, err := c.Translate(context.Background(), Request{Text: "สวัสดี", Mode: settings.ModeAuto})
	if !errors.Is(err, ErrTranslation) {
		t.Fatalf("want ErrTranslation, got %v", err)
	}
}

func TestClean(t *testing.T) {
	cases := map[string]struct {
		in, want string
	}{
		"plain":             {in: "안녕하세요", want: "안녕하세요"},
		"whitespace":        {in: "\n  안녕하세요 \n", want: "안녕하세요"},
		"double quotes":     {in: `"안녕하세요"`, want: "안녕하세요"},
		"curly quotes":      {in: "“สวัสดี”", want: "สวัสดี"},
		"corner brackets":   {in: "「안녕」", want: "안녕"},
		"inner quotes kept": {in: `"a" and "b"`, want: `"a" and "b"`},
		"fence":             {in: "```\n안녕\n```", want: "안녕"},
		"fence with info":   {in: "```text\n안녕\n하세요\n```", want: "안녕\n하세요"},
		"fence inline":      {in: "```안녕\n하세요```", want: "안녕\n하세요"},
		"multiline":         {in: "첫 줄\n둘째 줄", want: "첫 줄\n둘째 줄"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, Clean(tc.in), tc.want)
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	p := SystemPrompt(lang.ThToKo, settings.FormalityCasual)
	for _, want := range []string{"from Thai into Korean", "반말", "translation only"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt %q does not contain %q", p, want)
		}
	}
	p = SystemPrompt(lang.KoToTh, settings.FormalityFormal)
	for _, want := range []string{"from Korean into Thai", "ครับ"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt %q does not contain %q", p, want)
		}
	}
	p = SystemPrompt(lang.KoToTh, settings.FormalityAuto)
	if !strings.Contains(p, "Match the politeness level") {
		t.Errorf("prompt %q does not mention matching politeness", p)
	}
}

func TestGeminiProvider(t *testing.T) {
	p := &Gemini{
		Model: "gemini-2.0-flash",
		Client: &gemini.Client{
			APIKey: "key",
			HTTPClient: testutil.MockHTTPClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				req := testutil.UnmarshalJSON[gemini.GenerateContentParams](t, b)
				testutil.AssertEqual(t, req.SystemInstruction.Parts[0].Text, "sys")
				testutil.AssertEqual(t, req.Contents[0].Parts[0].Text, "안녕")
				io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"สวัสดี"}]}}]}`)
			})),
		},
	}
	got, err := p.Complete(context.Background(), "sys", "안녕")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, got, "สวัสดี")
}

func TestGeminiProviderBlocked(t *testing.T) {
	p := &Gemini{
		Model: "gemini-2.0-flash",
		Client: &gemini.Client{
			HTTPClient: testutil.MockHTTPClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
			})),
		},
	}
	if _, err := p.Complete(context.Background(), "sys", "안녕"); err == nil {
		t.Fatal("want error for blocked prompt")
	}
}

func TestOpenAIProvider(t *testing.T) {
	p := &OpenAI{
		Model: "gpt-4o-mini",
		Client: &openai.Client{
			APIKey: "key",
			HTTPClient: testutil.MockHTTPClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				req := testutil.UnmarshalJSON[openai.ChatCompletionParams](t, b)
				testutil.AssertEqual(t, req.Messages, []openai.Message{
					{Role: "system", Content: "sys"},
					{Role: "user", Content: "สวัสดี"},
				})
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"안녕"}}]}`)
			})),
		},
	}
	got, err := p.Complete(context.Background(), "sys", "สวัสดี")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, got, "안녕")
}
