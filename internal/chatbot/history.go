package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/purrpal/purrpal/internal/cache"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// maxHistoryMessages caps a session at the last 20 exchanges.
	maxHistoryMessages = 40
)

// Message is one stored turn of a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// History keeps per-session conversations in the cache with a sliding TTL.
type History struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewHistory(c cache.Cache, ttl time.Duration) *History {
	return &History{cache: c, ttl: ttl}
}

func (h *History) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	key := cache.ChatHistoryKey(sessionID)
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		if err := h.cache.AppendCapped(ctx, key, data, maxHistoryMessages, h.ttl); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	return nil
}

// Messages returns the session's history, oldest first. Undecodable entries are skipped.
func (h *History) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	raw, err := h.cache.ListAll(ctx, cache.ChatHistoryKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal(r, &m); err != nil {
			slog.Warn("skipping malformed chat history entry", "session_id", sessionID, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (h *History) Clear(ctx context.Context, sessionID string) error {
	if err := h.cache.Delete(ctx, cache.ChatHistoryKey(sessionID)); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Buffer loads the session into a langchaingo conversation buffer.
func (h *History) Buffer(ctx context.Context, sessionID string) (*memory.ConversationBuffer, error) {
	msgs, err := h.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	buf := memory.NewConversationBuffer()
	for _, m := range msgs {
		var chatMsg llms.ChatMessage
		switch m.Role {
		case RoleUser:
			chatMsg = llms.HumanChatMessage{Content: m.Content}
		case RoleAssistant:
			chatMsg = llms.AIChatMessage{Content: m.Content}
		default:
			continue
		}
		if err := buf.ChatHistory.AddMessage(ctx, chatMsg); err != nil {
			return nil, fmt.Errorf("add message to buffer: %w", err)
		}
	}
	return buf, nil
}
