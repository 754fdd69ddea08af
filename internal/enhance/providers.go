// SPDX-License-Identifier: MPL-2.0

package enhance

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"
)

const maxTokens = 512

type (
	anthropicEnhancer struct {
		client anthropic.Client
		model  string
	}

	geminiEnhancer struct {
		client *genai.Client
		model  string
	}
)

func newAnthropic(key, model string) *anthropicEnhancer {
	return &anthropicEnhancer{client: anthropic.NewClient(option.WithAPIKey(key)), model: model}
}

func (e *anthropicEnhancer) Name() string { return string(ProviderAnthropic) }

func (e *anthropicEnhancer) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(Prompt(req))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return answer(b.String())
}

func newGemini(ctx context.Context, key, model string) (*geminiEnhancer, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &geminiEnhancer{client: cli, model: model}, nil
}

func (e *geminiEnhancer) Name() string { return string(ProviderGemini) }

func (e *geminiEnhancer) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := e.client.Models.GenerateContent(ctx, e.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: Prompt(req)}}}},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return answer(b.String())
}

func answer(raw string) (string, error) {
	if s := Clean(raw); s != "" {
		return s, nil
	}
	return "", ErrEmptyResponse
}
