package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/purrpal/purrpal/internal/api/response"
)

// Recovery converts a handler panic into a 500 envelope. When exposeDetails is
// set (development) the panic value is echoed in details.
func Recovery(exposeDetails bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				slog.Error("panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", chimw.GetReqID(r.Context()),
				)

				var details any
				if exposeDetails {
					details = fmt.Sprint(rec)
				}
				response.Error(w, http.StatusInternalServerError,
					"INTERNAL_ERROR", "Internal server error", details)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
