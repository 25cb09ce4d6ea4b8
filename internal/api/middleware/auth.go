package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/purrpal/purrpal/internal/api/response"
)

// TokenParser verifies an access token and returns its user ID.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

// Auth provides JWT authentication middleware.
type Auth struct {
	tokens TokenParser
}

// NewAuth creates a new Auth middleware.
func NewAuth(tokens TokenParser) *Auth {
	return &Auth{tokens: tokens}
}

// Authenticate validates the Bearer token and sets the user ID in the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		userID, err := a.tokens.Parse(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid or expired token", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUserID(r.Context(), userID)))
	})
}

// Optional is Authenticate without the rejection: a valid token sets the user
// ID, anything else passes through anonymously.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := extractBearerToken(r); token != "" {
			if userID, err := a.tokens.Parse(token); err == nil {
				r = r.WithContext(SetUserID(r.Context(), userID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
