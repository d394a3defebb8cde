package service

import (
	"context"
	"fmt"

	"github.com/finsight-ai/finsight-be/config"
)

// CompletionService is a single-prompt completion provider. Implementations
// are network-bound and may be rate limited; callers bound every call with a
// context deadline.
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// NewCompletionService builds the named completion provider from config.
func NewCompletionService(ctx context.Context, provider, model string, cfg config.LLMConfig) (CompletionService, error) {
	switch provider {
	case "gemini":
		return NewGeminiService(ctx, cfg.GoogleAPIKey, model)
	case "deepseek":
		return NewOpenAIService(cfg.DeepSeekBaseURL, cfg.DeepSeekAPIKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported completion provider: %q", provider)
	}
}

// NewCompletionChain builds the primary provider and, when configured, the
// alternate fallback provider. The alternate may be nil.
func NewCompletionChain(ctx context.Context, cfg config.LLMConfig) (primary, alternate CompletionService, err error) {
	primary, err = NewCompletionService(ctx, cfg.Provider, cfg.Model, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AltProvider != "" {
		altModel := cfg.AltModel
		if altModel == "" {
			altModel = cfg.Model
		}
		alternate, err = NewCompletionService(ctx, cfg.AltProvider, altModel, cfg)
		if err != nil {
			return nil, nil, err
		}
	}
	return primary, alternate, nil
}
