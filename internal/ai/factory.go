package ai

import (
	"fmt"

	"github.com/purrpal/purrpal/internal/ai/anthropic"
	"github.com/purrpal/purrpal/internal/ai/mock"
	"github.com/purrpal/purrpal/internal/ai/ollama"
	"github.com/purrpal/purrpal/internal/ai/openai"
	"github.com/purrpal/purrpal/internal/ai/vllm"
	"github.com/purrpal/purrpal/internal/config"
	"github.com/purrpal/purrpal/internal/ml"
	"github.com/purrpal/purrpal/pkg/models"
	"github.com/tmc/langchaingo/llms"
)

// NewPredictor constructs the diagnosis backend based on config.
// Called once at server startup.
func NewPredictor(cfg config.MLConfig) (models.SymptomPredictor, error) {
	switch cfg.Provider {
	case "http", "":
		return ml.NewHTTPClient(cfg.TabularURL, cfg.VisionURL, cfg.Timeout), nil
	case "mock":
		return mock.NewMockPredictor(), nil
	default:
		return nil, fmt.Errorf("unknown ML provider %q: must be one of http, mock", cfg.Provider)
	}
}

// ChatModel is a constructed chatbot backend together with its identity.
type ChatModel struct {
	LLM      llms.Model
	Provider string
	Model    string
}

// NewChatModel constructs the chatbot LLM based on config. It performs no
// network I/O, so a down backend surfaces on the first generation instead.
func NewChatModel(cfg config.ChatbotConfig) (*ChatModel, error) {
	var (
		llm   llms.Model
		model string
		err   error
	)
	switch cfg.Provider {
	case ollama.Name:
		llm, err = ollama.NewModel(cfg.Ollama)
		model = cfg.Ollama.Model
	case vllm.Name:
		llm, err = vllm.NewModel(cfg.VLLM)
		model = cfg.VLLM.Model
	case openai.Name:
		llm, err = openai.NewModel(cfg.OpenAI)
		model = cfg.OpenAI.Model
	case anthropic.Name:
		llm, err = anthropic.NewModel(cfg.Anthropic)
		model = cfg.Anthropic.Model
	case "":
		return nil, fmt.Errorf("chatbot provider not configured: set CHATBOT_PROVIDER")
	default:
		return nil, fmt.Errorf("unknown chatbot provider %q: must be one of ollama, vllm, openai, anthropic", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &ChatModel{LLM: llm, Provider: cfg.Provider, Model: model}, nil
}
