package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cferg/readmebot/internal/agent"
	"github.com/cferg/readmebot/internal/config"
	"github.com/cferg/readmebot/internal/forge"
	"github.com/cferg/readmebot/internal/history"
	"github.com/cferg/readmebot/internal/llm"
	"github.com/cferg/readmebot/internal/notify"
	"github.com/cferg/readmebot/internal/server"
	"github.com/cferg/readmebot/internal/snapshot"
	"github.com/cferg/readmebot/internal/storage"
	"github.com/cferg/readmebot/internal/storage/memory"
	"github.com/cferg/readmebot/internal/storage/sqlite"
	"github.com/cferg/readmebot/internal/telemetry"
	"github.com/cferg/readmebot/internal/tokens"
	"github.com/cferg/readmebot/internal/webhook"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitTracer("readmebot", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var store storage.RunStore
	switch cfg.Storage.Type {
	case "sqlite":
		store, err = sqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			log.Fatalf("Failed to open run store: %v", err)
		}
	default:
		store = memory.New()
	}
	defer store.Close()

	ctx := context.Background()

	var forgeOpts []forge.GitHubOption
	if cfg.GitHub.BaseURL != "" {
		forgeOpts = append(forgeOpts, forge.WithBaseURL(cfg.GitHub.BaseURL))
	}
	forgeClient, err := forge.NewGitHubClient(cfg.GitHub.Token, forgeOpts...)
	if err != nil {
		log.Fatalf("Failed to create forge client: %v", err)
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}

	notifier, err := notify.NewNotifier(cfg.Notify, logger)
	if err != nil {
		log.Fatalf("Failed to create notifier: %v", err)
	}

	collector := snapshot.NewCollector(forgeClient, tokens.NewCounter(), cfg.Snapshot, logger)
	bot := agent.New(forgeClient, collector, provider, store, notifier, cfg, logger)

	webhookHandler := webhook.NewHandler(bot, cfg.Webhook.Secret, logger)
	historyHandler := history.NewHandler(store)

	srv := server.New(cfg.Server.Port, logger)
	srv.Router.Post("/webhook/push", webhookHandler.HandlePush)
	srv.Router.Get("/runs", historyHandler.ListRuns)
	srv.Router.Get("/runs/{id}", historyHandler.GetRun)
	srv.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("readmebot started",
		slog.Int("port", cfg.Server.Port),
		slog.String("provider", cfg.LLM.Provider),
		slog.String("model", cfg.LLM.Model))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigChan:
		logger.Info("shutting down", slog.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		}
	}
}
