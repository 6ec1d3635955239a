// -- internal/llmclient/factory.go --
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/config"
)

// NewClient builds a single-model client for the given provider.
func NewClient(cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return NewGeminiClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", cfg.Provider, config.ProviderGemini)
	}
}

// NewRouter builds the tiered router from the full LLM configuration.
func NewRouter(cfg config.LLMRouterConfig, logger *zap.Logger) (*LLMRouter, error) {
	fast, err := NewClient(cfg.Fast, logger)
	if err != nil {
		return nil, fmt.Errorf("building fast tier client: %w", err)
	}
	powerful, err := NewClient(cfg.Powerful, logger)
	if err != nil {
		return nil, fmt.Errorf("building powerful tier client: %w", err)
	}
	return NewLLMRouter(logger, fast, powerful, cfg.TurnRatePerMinute)
}
