package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"concierge/internal/config"

	"google.golang.org/genai"
)

// GeminiModel talks to the Gemini API
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewGeminiModel creates the client
func NewGeminiModel(ctx context.Context, cfg *config.ModelConfig) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.ChatModel
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiModel{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Name returns the provider-qualified model name
func (m *GeminiModel) Name() string {
	return "gemini/" + m.model
}

// Complete sends one generateContent request and returns its text
func (m *GeminiModel) Complete(ctx context.Context, system string, messages []ChatMessage) (string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(m.temperature)),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if m.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(m.maxTokens)
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return resp.Text(), nil
}

// classifyGeminiError marks quota exhaustion as rate limiting
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("gemini generate content: %w", err)
}
