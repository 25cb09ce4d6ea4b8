package ai_test

import (
	"testing"

	"github.com/purrpal/purrpal/internal/ai"
	"github.com/purrpal/purrpal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPredictor_HTTP(t *testing.T) {
	p, err := ai.NewPredictor(config.MLConfig{
		Provider:   "http",
		TabularURL: "http://localhost:8001",
		VisionURL:  "http://localhost:8002",
	})
	require.NoError(t, err)
	assert.Equal(t, "http", p.Name())
}

func TestNewPredictor_Mock(t *testing.T) {
	p, err := ai.NewPredictor(config.MLConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestNewPredictor_Unknown(t *testing.T) {
	_, err := ai.NewPredictor(config.MLConfig{Provider: "grpc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ML provider")
}

func TestNewChatModel_Ollama(t *testing.T) {
	m, err := ai.NewChatModel(config.ChatbotConfig{
		Provider: "ollama",
		Ollama:   config.OllamaConfig{BaseURL: "http://localhost:11434", Model: "llama3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", m.Provider)
	assert.Equal(t, "llama3", m.Model)
	assert.NotNil(t, m.LLM)
}

func TestNewChatModel_VLLM(t *testing.T) {
	m, err := ai.NewChatModel(config.ChatbotConfig{
		Provider: "vllm",
		VLLM:     config.VLLMConfig{BaseURL: "http://localhost:8000", Model: "mistral-7b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "vllm", m.Provider)
	assert.Equal(t, "mistral-7b", m.Model)
}

func TestNewChatModel_OpenAI(t *testing.T) {
	m, err := ai.NewChatModel(config.ChatbotConfig{
		Provider: "openai",
		OpenAI:   config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini"},
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Provider)
}

func TestNewChatModel_Anthropic(t *testing.T) {
	m, err := ai.NewChatModel(config.ChatbotConfig{
		Provider:  "anthropic",
		Anthropic: config.AnthropicConfig{APIKey: "sk-ant-test", Model: "claude-sonnet-4-5-20250929"},
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Provider)
}

func TestNewChatModel_Unconfigured(t *testing.T) {
	_, err := ai.NewChatModel(config.ChatbotConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHATBOT_PROVIDER")
}

func TestNewChatModel_Unknown(t *testing.T) {
	_, err := ai.NewChatModel(config.ChatbotConfig{Provider: "bard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown chatbot provider")
}
