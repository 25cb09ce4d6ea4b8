// Package main is the entrypoint for the PurrPal API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/purrpal/purrpal/internal/ai"
	"github.com/purrpal/purrpal/internal/api"
	"github.com/purrpal/purrpal/internal/api/handler"
	mw "github.com/purrpal/purrpal/internal/api/middleware"
	"github.com/purrpal/purrpal/internal/auth"
	"github.com/purrpal/purrpal/internal/cache"
	"github.com/purrpal/purrpal/internal/chatbot"
	"github.com/purrpal/purrpal/internal/config"
	"github.com/purrpal/purrpal/internal/events"
	"github.com/purrpal/purrpal/internal/geocode"
	"github.com/purrpal/purrpal/internal/metrics"
	"github.com/purrpal/purrpal/internal/store"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
	chatInitTimeout = 2 * time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"ml_provider", cfg.ML.Provider,
		"chatbot_provider", cfg.Chatbot.Provider,
		"env", cfg.Server.Env,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Diagnosis backend and events
	predictor, err := ai.NewPredictor(cfg.ML)
	if err != nil {
		return fmt.Errorf("create ML predictor: %w", err)
	}
	slog.Info("ML predictor initialized", "backend", predictor.Name(), "tabular_url", cfg.ML.TabularURL)

	publisher, err := newPublisher(cfg.NATS)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer publisher.Close()

	gateway := ai.NewGateway(predictor, publisher)

	// 6. Chatbot, initialized in the background
	history := chatbot.NewHistory(redisCache, cfg.Chatbot.HistoryTTL)
	chat := chatbot.NewGateway(chatbotInit(cfg.Chatbot, history), chatInitTimeout)
	chat.Start()

	// 7. Build router with dependencies
	pgStore := store.NewPostgresStore(pool)
	tokens := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	account := handler.NewAccountHandler(pgStore, tokens)
	community := handler.NewCommunityHandler(pgStore,
		geocode.NewClient(cfg.Geocode.BaseURL, redisCache, cfg.Geocode.CacheTTL))
	chatbotH := handler.NewChatbotHandler(chat, history)

	deps := api.Dependencies{
		Auth:         mw.NewAuth(tokens),
		RateLimit:    mw.NewRateLimit(redisCache, cfg.RateLimit.PerUserPerMinute),
		AuthLimit:    mw.NewIPRateLimit(cfg.RateLimit.AuthPerSecond, cfg.RateLimit.AuthBurst),
		CORSOrigins:  cfg.CORS.AllowedOrigins,
		ExposeErrors: cfg.Server.Env == "development",

		RootHandler:    handler.NewRootHandler(version),
		HealthHandler:  handler.NewHealthHandler(pgStore, redisCache),
		MetricsHandler: metrics.Handler(),

		PredictHandler:     handler.NewPredictHandler(gateway),
		DetectImageHandler: handler.NewDetectImageHandler(gateway),
		AIHealthHandler:    handler.NewAIHealthHandler(ai.NewHealthChecker(predictor, cfg.ML.TabularURL)),
		AIInfoHandler:      handler.NewAIInfoHandler(),

		ChatbotHealth:       chatbotH.Health,
		ChatbotMessage:      chatbotH.Message,
		ChatbotHistory:      chatbotH.History,
		ChatbotClearHistory: chatbotH.ClearHistory,

		Signup:         account.Signup,
		Login:          account.Login,
		GetProfile:     account.Profile,
		UpdateProfile:  account.UpdateProfile,
		ChangePassword: account.ChangePassword,
		ChangeEmail:    account.ChangeEmail,

		ListStories:    community.ListStories,
		CreateStory:    community.CreateStory,
		ListModules:    community.ListModules,
		GetModule:      community.GetModule,
		ListVeterinary: community.ListVeterinary,
		ReverseGeocode: community.ReverseGeocode,
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server. WriteTimeout leaves room for slow ML and LLM calls.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newPublisher connects to NATS when a URL is configured.
func newPublisher(cfg config.NATSConfig) (events.Publisher, error) {
	if cfg.URL == "" {
		slog.Info("NATS_URL not set, diagnosis events disabled")
		return events.Nop{}, nil
	}
	p, err := events.NewNATSPublisher(cfg.URL)
	if err != nil {
		return nil, err
	}
	slog.Info("nats connected", "url", cfg.URL)
	return p, nil
}

// chatbotInit builds the LLM and confirms it answers before the chatbot is
// reported ready.
func chatbotInit(cfg config.ChatbotConfig, history *chatbot.History) chatbot.InitFunc {
	return func(ctx context.Context) (*chatbot.Assistant, error) {
		model, err := ai.NewChatModel(cfg)
		if err != nil {
			return nil, err
		}
		a := chatbot.NewAssistant(model.LLM, history, cfg.Timeout, model.Provider, model.Model)
		if err := a.Probe(ctx); err != nil {
			return nil, fmt.Errorf("probe %s: %w", model.Provider, err)
		}
		slog.Info("chatbot ready", "provider", model.Provider, "model", model.Model)
		return a, nil
	}
}
