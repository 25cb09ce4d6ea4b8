package openai

import (
	"fmt"

	"github.com/purrpal/purrpal/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const Name = "openai"

// NewModel returns an OpenAI chat model.
func NewModel(cfg config.OpenAIConfig) (llms.Model, error) {
	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	return llm, nil
}
