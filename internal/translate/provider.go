// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package translate

import (
	"context"
	"errors"
	"fmt"

	"go.astrophena.name/kothbot/internal/api/google/gemini"
	"go.astrophena.name/kothbot/internal/api/openai"
)

const (
	temperature = 0.3
	maxTokens   = 1024
)

// Gemini is a [Provider] backed by the Gemini API.
type Gemini struct {
	Client *gemini.Client
	Model  string
}

// Complete implements the [Provider] interface.
func (g *Gemini) Complete(ctx context.Context, system, text string) (string, error) {
	temp := temperature
	resp, err := g.Client.GenerateContent(ctx, g.Model, gemini.GenerateContentParams{
		SystemInstruction: &gemini.Content{Parts: []*gemini.Part{{Text: system}}},
		Contents:          []*gemini.Content{{Role: "user", Parts: []*gemini.Part{{Text: text}}}},
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:     &temp,
			MaxOutputTokens: maxTokens,
		},
	})
	if err != nil {
		return "", err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	return resp.Text(), nil
}

// OpenAI is a [Provider] backed by an OpenAI-compatible chat completions API.
type OpenAI struct {
	Client *openai.Client
	Model  string
}

// Complete implements the [Provider] interface.
func (o *OpenAI) Complete(ctx context.Context, system, text string) (string, error) {
	temp := temperature
	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionParams{
		Model: o.Model,
		Messages: []openai.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		Temperature: &temp,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Text(), nil
}
