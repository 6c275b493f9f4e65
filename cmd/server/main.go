// Trupy - Conversational Support Assistant Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/trupyai/trupy/internal/api"
	"github.com/trupyai/trupy/internal/archive"
	"github.com/trupyai/trupy/internal/config"
	"github.com/trupyai/trupy/internal/llm"
	"github.com/trupyai/trupy/internal/middleware"
	"github.com/trupyai/trupy/internal/safety"
	"github.com/trupyai/trupy/internal/session"
	"github.com/trupyai/trupy/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "model", cfg.LLM.Model)

	// Initialize dependencies.
	ar, err := archive.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize archive database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := ar.Close(); closeErr != nil {
			slog.Error("Failed to close archive", "error", closeErr)
		}
	}()

	if err := ar.Ping(context.Background()); err != nil {
		slog.Error("Archive health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Archive database connected")

	var sessions store.Store
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		sessions = redisStore
		slog.Info("Redis session store connected")
	} else {
		sessions = store.NewMemory()
		slog.Warn("REDIS_URL not set, using in-memory session store (sessions are lost on restart)")
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	// Initialize services.
	provider := llm.NewOpenAI(llm.OpenAIConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	client := llm.NewClient(provider, logger)
	detector := safety.New(cfg.CrisisTerms...)
	svc := session.NewService(sessions, ar, client, detector, cfg.SessionTTL)

	// Initialize handlers.
	handler := api.NewHandler(svc)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(chiMiddleware.Throttle(cfg.RateLimit))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	handler.RegisterRoutes(r)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Provider retries can hold a turn for a while.
		IdleTimeout:  120 * time.Second,
	}

	// Start background sweeper.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartSweeper(ctx, sessions, cfg.SweepInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
