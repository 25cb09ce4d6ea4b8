package vllm

import (
	"fmt"
	"strings"

	"github.com/purrpal/purrpal/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const Name = "vllm"

// NewModel returns a chat model served by vLLM. vLLM exposes an
// OpenAI-compatible API under /v1 and ignores the token.
func NewModel(cfg config.VLLMConfig) (llms.Model, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("vllm: VLLM_MODEL is required")
	}
	llm, err := openai.New(
		openai.WithBaseURL(baseURL(cfg.BaseURL)),
		openai.WithModel(cfg.Model),
		openai.WithToken("EMPTY"),
	)
	if err != nil {
		return nil, fmt.Errorf("vllm client: %w", err)
	}
	return llm, nil
}

func baseURL(u string) string {
	u = strings.TrimRight(u, "/")
	if strings.HasSuffix(u, "/v1") {
		return u
	}
	return u + "/v1"
}
