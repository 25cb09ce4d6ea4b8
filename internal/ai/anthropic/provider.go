package anthropic

import (
	"fmt"

	"github.com/purrpal/purrpal/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

const Name = "anthropic"

// NewModel returns an Anthropic chat model.
func NewModel(cfg config.AnthropicConfig) (llms.Model, error) {
	llm, err := anthropic.New(
		anthropic.WithToken(cfg.APIKey),
		anthropic.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("anthropic client: %w", err)
	}
	return llm, nil
}
