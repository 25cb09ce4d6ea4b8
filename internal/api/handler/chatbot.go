package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/purrpal/purrpal/internal/ai"
	mw "github.com/purrpal/purrpal/internal/api/middleware"
	"github.com/purrpal/purrpal/internal/api/response"
	"github.com/purrpal/purrpal/internal/chatbot"
	"github.com/purrpal/purrpal/internal/metrics"
)

const (
	msgChatInitializing = "Chatbot sedang dalam proses inisialisasi. Silakan tunggu sebentar."
	msgChatEmpty        = "Message is required and must be a non-empty string"
)

// ChatGateway is the part of chatbot.Gateway the chatbot handlers depend on.
type ChatGateway interface {
	Ensure(ctx context.Context) (*chatbot.Assistant, error)
	Reply(ctx context.Context, sessionID, message string) (string, error)
}

// ChatHistory reads and clears stored conversations.
type ChatHistory interface {
	Messages(ctx context.Context, sessionID string) ([]chatbot.Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// ChatbotHandler serves /api/chatbot.
type ChatbotHandler struct {
	gateway ChatGateway
	history ChatHistory
}

func NewChatbotHandler(g ChatGateway, h ChatHistory) *ChatbotHandler {
	return &ChatbotHandler{gateway: g, history: h}
}

// Health handles GET /api/chatbot/health.
func (h *ChatbotHandler) Health(w http.ResponseWriter, r *http.Request) {
	a, err := h.gateway.Ensure(r.Context())
	switch {
	case errors.Is(err, chatbot.ErrInitializing):
		response.Raw(w, http.StatusAccepted, map[string]any{
			"status":    "initializing",
			"message":   "Chatbot is currently being initialized",
			"timestamp": timestamp(),
		})
	case err != nil:
		response.Raw(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unavailable",
			"message":   "Chatbot service is not available",
			"error":     err.Error(),
			"timestamp": timestamp(),
			"suggestions": []string{
				"Check CHATBOT_PROVIDER and the provider settings",
				"Verify the LLM backend is reachable",
				"Try again in a few minutes",
			},
		})
	default:
		response.Raw(w, http.StatusOK, map[string]any{
			"status":              "healthy",
			"provider":            a.Provider,
			"model":               a.Model,
			"backend_integration": "active",
			"timestamp":           timestamp(),
		})
	}
}

// Message handles POST /api/chatbot/message.
func (h *ChatbotHandler) Message(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message any `json:"message"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		h.invalid(w)
		return
	}
	text, ok := body.Message.(string)
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		h.invalid(w)
		return
	}

	sessionID := mw.SessionID(r)
	start := time.Now()
	reply, err := h.gateway.Reply(r.Context(), sessionID, text)
	if err != nil {
		h.replyError(w, err)
		return
	}
	metrics.RecordChatbotMessage("success")

	response.Raw(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           reply,
		"session_id":        sessionID,
		"response_time_ms":  time.Since(start).Milliseconds(),
		"backend_processed": true,
		"timestamp":         timestamp(),
	})
}

// History handles GET /api/chatbot/history.
func (h *ChatbotHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := mw.SessionID(r)
	msgs, err := h.history.Messages(r.Context(), sessionID)
	if err != nil {
		slog.Error("loading chat history failed", "session_id", sessionID, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to get conversation history", nil)
		return
	}
	response.Raw(w, http.StatusOK, map[string]any{
		"success":    true,
		"history":    msgs,
		"session_id": sessionID,
		"timestamp":  timestamp(),
	})
}

// ClearHistory handles DELETE /api/chatbot/history.
func (h *ChatbotHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mw.SessionID(r)
	if err := h.history.Clear(r.Context(), sessionID); err != nil {
		slog.Error("clearing chat history failed", "session_id", sessionID, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to clear conversation history", nil)
		return
	}
	response.Raw(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Riwayat percakapan telah dihapus",
		"session_id": sessionID,
		"timestamp":  timestamp(),
	})
}

func (h *ChatbotHandler) invalid(w http.ResponseWriter) {
	response.Raw(w, http.StatusBadRequest, map[string]any{
		"success":   false,
		"error":     msgChatEmpty,
		"code":      "VALIDATION_ERROR",
		"timestamp": timestamp(),
	})
}

func (h *ChatbotHandler) replyError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatbot.ErrInitializing) {
		response.Raw(w, http.StatusAccepted, map[string]any{
			"success":   false,
			"message":   msgChatInitializing,
			"error":     "Service initializing",
			"timestamp": timestamp(),
		})
		return
	}

	ce := ai.ClassifyFor(err, ai.LangID, ai.SubjectChatbot)
	short := "Internal server error"
	if errors.Is(err, chatbot.ErrNotReady) {
		// The init failure reason is diagnostic; the user sees the unavailable message.
		ce = (&ai.ClassifiedError{Kind: ai.KindServiceUnavailable, Err: err}).In(ai.LangID, ai.SubjectChatbot)
		short = "Chatbot service unavailable"
	}
	metrics.RecordChatbotMessage(string(ce.Kind))
	slog.Error("chatbot reply failed", "kind", ce.Kind, "error", err)

	response.Raw(w, response.StatusFor(ce.Kind), map[string]any{
		"success":     false,
		"message":     ce.Message,
		"error":       short,
		"code":        strings.ToUpper(string(ce.Kind)),
		"timestamp":   timestamp(),
		"suggestions": ce.Suggestions,
	})
}
