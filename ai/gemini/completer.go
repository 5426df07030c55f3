// Package gemini implements ai.Completer on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/studyforge/ai"
	"google.golang.org/genai"
)

// ErrBlocked is returned when Gemini refuses to answer for safety reasons.
var ErrBlocked = errors.New("gemini: response blocked")

// Completer implements ai.Completer using google.golang.org/genai.
type Completer struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// NewCompleter creates a Gemini completer from the provider config.
// Only CompletionModel, CompletionAPIKey and Temperature are used.
func NewCompleter(ctx context.Context, config *ai.Config) (ai.Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendGemini {
		return nil, fmt.Errorf("gemini: config backend is %q", config.Backend)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.CompletionAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Completer{
		client:      client,
		model:       config.CompletionModel,
		temperature: float32(config.Temperature),
		logger:      slog.Default().With("component", "gemini-completer"),
	}, nil
}

// Complete sends the user prompt with the system prompt as system instruction.
func (c *Completer) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}, cfg)
	if err != nil {
		c.logger.Error("failed to generate content", "model", c.model, "err", err)
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", ai.ErrEmptyCompletion
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", ErrBlocked
	}

	return resp.Text(), nil
}
