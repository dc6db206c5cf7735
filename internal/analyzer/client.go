package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"promptparse/internal/config"
)

// =============================================================================
// LLM CLIENT
// =============================================================================

// LLMClient is the narrow completion surface the generative analyzer needs.
// Tests substitute a mock; production wires the GenAI client.
type LLMClient interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenAIClient talks to Google's Gemini API through the official SDK.
type GenAIClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIClient creates a Gemini-backed completion client.
func NewGenAIClient(ctx context.Context, cfg config.LLMConfig) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{
		client:  client,
		model:   model,
		timeout: cfg.Timeout(),
	}, nil
}

// CompleteWithSystem sends one completion request and returns the raw text.
func (c *GenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(userPrompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI completion failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return text, nil
}

// extractJSON pulls a JSON object out of a model response that may wrap it
// in markdown fences or surrounding prose.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
