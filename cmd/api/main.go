package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/agentchat-platform/agentchat/internal/agents"
	"github.com/agentchat-platform/agentchat/internal/api"
	"github.com/agentchat-platform/agentchat/internal/chat"
	"github.com/agentchat-platform/agentchat/internal/config"
	"github.com/agentchat-platform/agentchat/internal/database"
	"github.com/agentchat-platform/agentchat/internal/events"
	"github.com/agentchat-platform/agentchat/internal/identity"
	"github.com/agentchat-platform/agentchat/internal/ledger"
	"github.com/agentchat-platform/agentchat/internal/middleware"
	"github.com/agentchat-platform/agentchat/internal/provider"
	"github.com/agentchat-platform/agentchat/internal/provider/gemini"
	"github.com/agentchat-platform/agentchat/internal/ratewindow"
	iredis "github.com/agentchat-platform/agentchat/internal/redis"
	"github.com/agentchat-platform/agentchat/internal/server"
	"github.com/agentchat-platform/agentchat/internal/store"
	"github.com/agentchat-platform/agentchat/internal/subscription"
	"github.com/agentchat-platform/agentchat/internal/usage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
			slog.Error("running migrations", "error", err)
			os.Exit(1)
		}
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS (optional)
	var natsClient *events.Client
	var publisher *events.Publisher
	if cfg.NATS.URL != "" {
		natsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		publisher = events.NewPublisher(natsClient.JetStream())
	}

	// Metering core
	st := store.NewPostgresStore(pool)
	tokenLedger := ledger.New(st)
	tracker := ratewindow.NewTracker(st, redisClient, cfg.Limits.MessageRateBase)

	// Generation
	geminiClient := gemini.New(cfg.Gemini.APIKey, cfg.Gemini.Model)
	responder := provider.NewResponder(geminiClient, agents.PersonaFor, slog.Default())

	// Pipeline and transports
	history := chat.NewHistory(redisClient)
	pipeline := chat.NewPipeline(tokenLedger, tracker, responder, st, history, publisher, slog.Default())
	chatHandler := chat.NewHandler(pipeline)

	connManager := chat.NewConnectionManager()
	defer connManager.CloseAll()
	wsHandler := chat.NewWSHandler(pipeline, connManager, cfg.Limits.WSIdleTimeout, slog.Default())

	agentHandler := agents.NewHandler()
	usageHandler := usage.NewHandler(tokenLedger)
	subHandler := subscription.NewHandler(st)

	verifier := identity.NewVerifier(cfg.Identity.TokenSecret)
	throttle := middleware.NewThrottle(redisClient, cfg.Limits.ChatThrottlePerMinute, int(time.Minute.Seconds()))

	// Router
	router := api.NewRouter(pool, redisClient, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
	}, api.HandlerSet{
		SendMessage: chatHandler.SendMessage,
		ChatWS:      wsHandler.Serve,

		ListAgents: agentHandler.List,
		GetAgent:   agentHandler.Get,
		ListModels: agentHandler.ListModels,
		GetModel:   agentHandler.GetModel,

		UsageStatus: usageHandler.Status,
		UsageReset:  usageHandler.Reset,
		SetPremium:  usageHandler.SetPremium,

		SubscriptionStatus: subHandler.Status,
		VerifyReceipt:      subHandler.Verify,

		IdentityMiddleware: identity.Middleware(verifier),
		ChatThrottle:       throttle.Middleware,
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
