package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewClient builds a completion client for the configured provider.
// An empty provider defaults to the OpenAI-compatible client, which also
// covers local endpoints (vLLM, Ollama) via BaseURL.
func NewClient(cfg *Config, logger *zap.Logger) (CompletionClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
