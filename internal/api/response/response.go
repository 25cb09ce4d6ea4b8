package response

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/purrpal/purrpal/internal/ai"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success     bool     `json:"success"`
	Error       string   `json:"error"`
	Code        string   `json:"code,omitempty"`
	Details     any      `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: data})
}

// Raw writes v as the whole body, without an envelope.
func Raw(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v)
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// Classified writes ce with the status its kind maps to.
func Classified(w http.ResponseWriter, ce *ai.ClassifiedError) {
	var details any
	if ce.Detail != "" {
		details = ce.Detail
	}
	writeJSON(w, StatusFor(ce.Kind), errorEnvelope{
		Error:       ce.Message,
		Code:        strings.ToUpper(string(ce.Kind)),
		Details:     details,
		Suggestions: ce.Suggestions,
	})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k ai.Kind) int {
	switch k {
	case ai.KindValidation:
		return http.StatusBadRequest
	case ai.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
