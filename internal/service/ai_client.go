package service

import (
	"context"
	"fmt"
	"strings"

	"concierge/internal/config"

	"github.com/rs/zerolog"
)

// Chat roles understood by every provider
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged turn sent to the model
type ChatMessage struct {
	Role    string
	Content string
}

// ChatModel is the generative model capability the pipeline depends on.
// Implementations make exactly one call per Complete, never retry, and
// wrap ErrRateLimited when the provider throttles.
type ChatModel interface {
	Complete(ctx context.Context, system string, messages []ChatMessage) (string, error)

	// Name identifies the provider and model for logs
	Name() string
}

// NewChatModel builds the provider named in cfg
func NewChatModel(ctx context.Context, cfg *config.ModelConfig, log zerolog.Logger) (ChatModel, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("model API key is not configured")
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		m := NewOpenAIModel(cfg)
		log.Info().Str("model", m.Name()).Str("base", cfg.APIBase).Msg("using OpenAI-compatible model")
		return m, nil
	case "gemini":
		m, err := NewGeminiModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("model", m.Name()).Msg("using Gemini model")
		return m, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
