// File: internal/llmclient/factory.go

// Package llmclient provides the language-model transports behind the
// planner: an OpenAI-compatible chat client and a Gemini REST client, routed
// per model tier.
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/droidpilot/droidpilot/api/schemas"
	"github.com/droidpilot/droidpilot/internal/config"
)

// NewClient is a factory function that creates an LLMClient based on the
// configured provider, wiring both tiers through a Router.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case "openai":
		client, err := NewOpenAIClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewRouter(logger, client, client)
	case "gemini":
		fast, err := NewGeminiClient(cfg, cfg.Fast, logger)
		if err != nil {
			return nil, err
		}
		vision, err := NewGeminiClient(cfg, cfg.Vision, logger)
		if err != nil {
			return nil, err
		}
		return NewRouter(logger, fast, vision)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: %q (supported: openai, gemini)", cfg.Provider)
	}
}
