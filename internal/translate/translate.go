// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package translate translates chat messages between Korean and Thai with a
// language model.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.astrophena.name/kothbot/internal/lang"
	"go.astrophena.name/kothbot/internal/logger"
	"go.astrophena.name/kothbot/internal/retry"
	"go.astrophena.name/kothbot/internal/settings"
)

// Provider is a language model that completes text following the system
// instruction.
type Provider interface {
	Complete(ctx context.Context, system, text string) (string, error)
}

var (
	// ErrNoDirection is returned when the direction can't be determined, for
	// example for text that is neither Korean nor Thai.
	ErrNoDirection = errors.New("no translation direction")
	// ErrTranslation is matched by errors returned when the provider failed
	// or returned nothing useful.
	ErrTranslation = errors.New("translation failed")

	errEmptyOutput = errors.New("provider returned empty output")
)

// DefaultTimeout bounds a single provider call when [Client.Timeout] is zero.
const DefaultTimeout = 60 * time.Second

// Client translates text with a [Provider].
type Client struct {
	// Provider does the actual translation.
	Provider Provider
	// Timeout bounds each provider call. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Retries is the number of times a call that timed out or failed
	// transiently is repeated.
	Retries int
}

// Request is a single translation request.
type Request struct {
	Text string
	// Mode is the conversation mode used when Direction is nil.
	Mode settings.Mode
	// Direction, if set, overrides Mode.
	Direction *lang.Direction
	// Formality is passed to the model as a register hint.
	Formality settings.Formality
}

// Result is a successful translation.
type Result struct {
	Text      string
	Direction lang.Direction
}

// ResolveDirection resolves the direction of r: the forced one, then the one fixed
// by the mode, then the one detected from the text in auto mode. It returns
// false if there is none.
func (r Request) ResolveDirection() (lang.Direction, bool) {
	if r.Direction != nil {
		return *r.Direction, true
	}
	if d, ok := r.Mode.Direction(); ok {
		return d, true
	}
	if r.Mode != settings.ModeAuto {
		return lang.Direction{}, false
	}
	l, ok := lang.Detect(r.Text)
	if !ok {
		return lang.Direction{}, false
	}
	return lang.DirectionFrom(l), true
}

// Translate translates r. If no direction can be resolved, it returns
// [ErrNoDirection] without calling the provider. Other failures match
// [ErrTranslation].
func (c *Client) Translate(ctx context.Context, r Request) (Result, error) {
	dir, ok := r.ResolveDirection()
	if !ok {
		return Result{}, ErrNoDirection
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	policy := retry.Policy{
		Name:      "translate",
		Timeout:   timeout,
		Retries:   c.Retries,
		Retryable: retry.IsTransient,
	}

	system := SystemPrompt(dir, r.Formality)
	start := time.Now()
	out, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return c.Provider.Complete(ctx, system, r.Text)
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTranslation, err)
	}

	text := Clean(out)
	if text == "" {
		return Result{}, fmt.Errorf("%w: %w", ErrTranslation, errEmptyOutput)
	}

	logger.Debug(ctx, "translated",
		slog.String("direction", dir.Tag()),
		slog.Duration("took", time.Since(start)),
	)
	return Result{Text: text, Direction: dir}, nil
}

// SystemPrompt returns the instruction given to the model for translating in
// dir with the formality f.
func SystemPrompt(dir lang.Direction, f settings.Formality) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an interpreter in a group chat. Translate the user's message from %s into %s.\n", dir.From.Name(), dir.To.Name())
	sb.WriteString("Keep the meaning, tone, emoji and line breaks of the original. Write the way a native speaker would in a chat.\n")
	switch f {
	case settings.FormalityCasual:
		sb.WriteString("Use casual speech.")
		if dir.To == lang.Korean {
			sb.WriteString(" In Korean use 반말.")
		} else {
			sb.WriteString(" In Thai leave out polite particles.")
		}
		sb.WriteString("\n")
	case settings.FormalityFormal:
		sb.WriteString("Use polite, formal speech.")
		if dir.To == lang.Korean {
			sb.WriteString(" In Korean use 존댓말.")
		} else {
			sb.WriteString(" In Thai end sentences with ครับ or ค่ะ.")
		}
		sb.WriteString("\n")
	default:
		sb.WriteString("Match the politeness level of the original.\n")
	}
	sb.WriteString("Reply with the translation only: no explanations, notes, quotes or transliteration.")
	return sb.String()
}

var quotePairs = [][2]string{
	{`"`, `"`},
	{"'", "'"},
	{"“", "”"},
	{"「", "」"},
	{"«", "»"},
}

// Clean removes formatting models tend to add around a translation: code
// fences, wrapping quotes and surrounding whitespace.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the optional language name on the opening line.
		if i := strings.IndexByte(s, '\n'); i >= 0 && isFenceInfo(s[:i]) {
			s = s[i+1:]
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			inner := s[len(q[0]) : len(s)-len(q[1])]
			// Keep quotes that are part of the text, like "a" and "b".
			if !strings.Contains(inner, q[0]) && !strings.Contains(inner, q[1]) {
				s = strings.TrimSpace(inner)
			}
			break
		}
	}
	return s
}

func isFenceInfo(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+') {
			return false
		}
	}
	return true
}
