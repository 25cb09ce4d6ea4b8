package handler

import (
	"context"
	"net/http"

	"github.com/purrpal/purrpal/internal/api/response"
)

// Pinger is anything whose connectivity /health reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRootHandler returns an http.HandlerFunc for GET /.
func NewRootHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]any{
			"service": "PurrPal API",
			"version": version,
			"endpoints": map[string]string{
				"auth":       "/api/auth",
				"users":      "/api/users",
				"stories":    "/api/stories",
				"modules":    "/api/modules",
				"veterinary": "/api/veterinary",
				"location":   "/api/location",
				"ai":         "/api/ai",
				"chatbot":    "/api/chatbot",
				"health":     "/health",
				"metrics":    "/metrics",
			},
		})
	}
}

// NewHealthHandler checks database and cache connectivity.
func NewHealthHandler(db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := db.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := cache.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["database"] != "ok" || checks["cache"] != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
