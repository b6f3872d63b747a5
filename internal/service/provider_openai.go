package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"concierge/internal/config"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIModel talks to any OpenAI-compatible chat completions endpoint
type OpenAIModel struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAIModel creates the client. The SDK's own retries are disabled so
// each Complete is exactly one request.
func NewOpenAIModel(cfg *config.ModelConfig) *OpenAIModel {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.APIBase != "" {
		opts = append(opts, option.WithBaseURL(cfg.APIBase))
	}

	return &OpenAIModel{
		client:      openai.NewClient(opts...),
		model:       cfg.ChatModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Name returns the provider-qualified model name
func (m *OpenAIModel) Name() string {
	return "openai/" + m.model
}

// Complete sends one chat completion and returns the first choice's text
func (m *OpenAIModel) Complete(ctx context.Context, system string, messages []ChatMessage) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       m.model,
		Messages:    m.convertMessages(system, messages),
		Temperature: openai.Float(m.temperature),
	}
	if m.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(m.maxTokens))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (m *OpenAIModel) convertMessages(system string, messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if strings.TrimSpace(system) != "" {
		result = append(result, openai.SystemMessage(system))
	}
	for _, msg := range messages {
		if msg.Role == RoleAssistant {
			result = append(result, openai.AssistantMessage(msg.Content))
		} else {
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}
