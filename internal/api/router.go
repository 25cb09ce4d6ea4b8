package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	mw "github.com/purrpal/purrpal/internal/api/middleware"
	"github.com/purrpal/purrpal/internal/api/response"
	"github.com/purrpal/purrpal/internal/metrics"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth         *mw.Auth
	RateLimit    *mw.RateLimit
	AuthLimit    *mw.IPRateLimit
	CORSOrigins  []string
	// ExposeErrors echoes panic details in 500 responses.
	ExposeErrors bool

	RootHandler    http.HandlerFunc
	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler

	PredictHandler     http.HandlerFunc
	DetectImageHandler http.HandlerFunc
	AIHealthHandler    http.HandlerFunc
	AIInfoHandler      http.HandlerFunc

	ChatbotHealth       http.HandlerFunc
	ChatbotMessage      http.HandlerFunc
	ChatbotHistory      http.HandlerFunc
	ChatbotClearHistory http.HandlerFunc

	Signup         http.HandlerFunc
	Login          http.HandlerFunc
	GetProfile     http.HandlerFunc
	UpdateProfile  http.HandlerFunc
	ChangePassword http.HandlerFunc
	ChangeEmail    http.HandlerFunc

	ListStories    http.HandlerFunc
	CreateStory    http.HandlerFunc
	ListModules    http.HandlerFunc
	GetModule      http.HandlerFunc
	ListVeterinary http.HandlerFunc
	ReverseGeocode http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery(deps.ExposeErrors))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})

	// Public platform endpoints
	r.Get("/", orNotImplemented(deps.RootHandler))
	r.Get("/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/ai", func(r chi.Router) {
			r.Get("/health", orNotImplemented(deps.AIHealthHandler))
			r.Get("/info", orNotImplemented(deps.AIInfoHandler))

			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.Authenticate)
				r.Use(deps.RateLimit.Limit)

				r.Post("/predict-symptoms", orNotImplemented(deps.PredictHandler))
				r.Post("/detect-image", orNotImplemented(deps.DetectImageHandler))
			})
		})

		// The chatbot is open to guests; a token only scopes the session.
		r.Route("/chatbot", func(r chi.Router) {
			r.Use(deps.Auth.Optional)

			r.Get("/health", orNotImplemented(deps.ChatbotHealth))
			r.Post("/message", orNotImplemented(deps.ChatbotMessage))
			r.Get("/history", orNotImplemented(deps.ChatbotHistory))
			r.Delete("/history", orNotImplemented(deps.ChatbotClearHistory))
		})

		r.Route("/auth", func(r chi.Router) {
			if deps.AuthLimit != nil {
				r.Use(deps.AuthLimit.Limit)
			}
			r.Post("/signup", orNotImplemented(deps.Signup))
			r.Post("/login", orNotImplemented(deps.Login))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(deps.Auth.Authenticate)

			r.Get("/profile", orNotImplemented(deps.GetProfile))
			r.Put("/profile", orNotImplemented(deps.UpdateProfile))
			r.Put("/password", orNotImplemented(deps.ChangePassword))
			r.Put("/email", orNotImplemented(deps.ChangeEmail))
		})

		r.Get("/stories", orNotImplemented(deps.ListStories))
		r.With(deps.Auth.Authenticate).Post("/stories", orNotImplemented(deps.CreateStory))

		r.Get("/modules", orNotImplemented(deps.ListModules))
		r.Get("/modules/{id}", orNotImplemented(deps.GetModule))
		r.Get("/veterinary", orNotImplemented(deps.ListVeterinary))
		r.Get("/location/reverse-geocode", orNotImplemented(deps.ReverseGeocode))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
