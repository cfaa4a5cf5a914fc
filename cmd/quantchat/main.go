package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/easyquant/quantchat/internal/api"
	"github.com/easyquant/quantchat/internal/config"
	"github.com/easyquant/quantchat/internal/conversation"
	"github.com/easyquant/quantchat/internal/deepseek"
	"github.com/easyquant/quantchat/internal/events"
	"github.com/easyquant/quantchat/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	// Local development convenience; the file is optional.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("quantchat starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	// DeepSeek gateway
	if cfg.DeepSeekAPIKey == "" {
		slog.Error("DEEPSEEK_API_KEY is required")
		os.Exit(1)
	}
	llm := deepseek.NewClient(cfg.DeepSeekAPIKey, cfg.Model, cfg.DeepSeekURL, cfg.Persona, slog.Default())
	slog.Info("gateway client ready", "model", cfg.Model, "base_url", cfg.DeepSeekURL)

	// Event publisher (optional — the service runs without NATS)
	var pub conversation.Publisher
	if cfg.NatsURL != "" {
		p, err := events.Connect(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		pub = p
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without event publishing")
	}

	// Conversation controller
	ctrl := conversation.New(db, llm, pub, conversation.Config{
		GapThreshold:   cfg.SessionGap,
		TitleLen:       cfg.TitleLen,
		RequestTimeout: cfg.RequestTimeout,
		RetryTransport: cfg.RetryTransport,
	}, slog.Default())

	// Warm the session view so the first render has history.
	if msgs, err := ctrl.LoadHistory(ctx); err != nil {
		slog.Warn("failed to load history at startup", "error", err)
	} else {
		slog.Info("history loaded", "messages", len(msgs), "sessions", len(ctrl.Sessions()))
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, ctrl)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("quantchat ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("quantchat stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
