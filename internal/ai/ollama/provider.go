package ollama

import (
	"fmt"

	"github.com/purrpal/purrpal/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const Name = "ollama"

// NewModel returns a chat model served by a local Ollama daemon.
func NewModel(cfg config.OllamaConfig) (llms.Model, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return llm, nil
}
