package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

const systemPrompt = `Kamu adalah PurrPal Assistant, asisten virtual yang ramah untuk pemilik kucing.
Jawab dalam Bahasa Indonesia yang jelas dan singkat.
Kamu membantu seputar kesehatan, nutrisi, perilaku, dan perawatan kucing.
Kamu bukan dokter hewan. Untuk gejala serius seperti sesak napas, muntah darah, atau kucing tidak mau makan lebih dari sehari, sarankan pemilik segera membawa kucing ke dokter hewan terdekat.
Jika pertanyaan di luar topik kucing, arahkan kembali dengan sopan.`

var errEmptyReply = errors.New("model returned no content")

// Assistant answers chat messages with an LLM, keeping per-session history.
type Assistant struct {
	llm      llms.Model
	history  *History
	timeout  time.Duration
	Provider string
	Model    string
}

func NewAssistant(llm llms.Model, history *History, timeout time.Duration, provider, model string) *Assistant {
	return &Assistant{
		llm:      llm,
		history:  history,
		timeout:  timeout,
		Provider: provider,
		Model:    model,
	}
}

// Reply generates an answer to message in the context of the session's history
// and records both turns.
func (a *Assistant) Reply(ctx context.Context, sessionID, message string) (string, error) {
	buf, err := a.history.Buffer(ctx, sessionID)
	if err != nil {
		return "", err
	}
	past, err := buf.ChatHistory.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("read buffer: %w", err)
	}

	content := make([]llms.MessageContent, 0, len(past)+2)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, m := range past {
		content = append(content, llms.TextParts(m.GetType(), m.GetContent()))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, message))

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.llm.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", errEmptyReply
	}
	reply := strings.TrimSpace(resp.Choices[0].Content)

	now := time.Now().UTC()
	if err := a.history.Append(ctx, sessionID,
		Message{Role: RoleUser, Content: message, Timestamp: now},
		Message{Role: RoleAssistant, Content: reply, Timestamp: now},
	); err != nil {
		return "", err
	}
	return reply, nil
}

// Probe sends a trivial prompt to confirm the backend answers.
func (a *Assistant) Probe(ctx context.Context) error {
	_, err := llms.GenerateFromSinglePrompt(ctx, a.llm, "Balas dengan satu kata: siap",
		llms.WithMaxTokens(8))
	if err != nil {
		return fmt.Errorf("probe %s: %w", a.Provider, err)
	}
	return nil
}
