package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/agentchat-platform/agentchat/internal/database"
	"github.com/agentchat-platform/agentchat/internal/events"
	mw "github.com/agentchat-platform/agentchat/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid
// import cycles.
type HandlerSet struct {
	// Chat
	SendMessage http.HandlerFunc
	ChatWS      http.HandlerFunc

	// Persona catalog and model directory
	ListAgents http.HandlerFunc
	GetAgent   http.HandlerFunc
	ListModels http.HandlerFunc
	GetModel   http.HandlerFunc

	// Usage ledger
	UsageStatus http.HandlerFunc
	UsageReset  http.HandlerFunc
	SetPremium  http.HandlerFunc

	// Subscription
	SubscriptionStatus http.HandlerFunc
	VerifyReceipt      http.HandlerFunc

	// Optional bearer-token check; nil disables
	IdentityMiddleware func(http.Handler) http.Handler

	// Optional per-IP throttle on chat sends; nil disables
	ChatThrottle func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
}

func NewRouter(pool *pgxpool.Pool, rdb *redis.Client, natsClient *events.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{
			"message": "AgentChat API",
			"status":  "running",
		})
	})

	// Liveness probe - always 200, no dependency checks
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Readiness probe - checks DB, Redis, NATS
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "ready",
			"database": "healthy",
			"redis":    "healthy",
			"nats":     "healthy",
		}
		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if rdb != nil {
			if err := rdb.Ping(r.Context()).Err(); err != nil {
				health["redis"] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		} else {
			health["redis"] = "not configured"
		}

		if natsClient != nil {
			if !natsClient.Healthy() {
				health["nats"] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		} else {
			health["nats"] = "not configured"
		}

		JSON(w, status, health)
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if h.IdentityMiddleware != nil {
			r.Use(h.IdentityMiddleware)
		}

		r.Route("/chat", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if h.ChatThrottle != nil {
					r.Use(h.ChatThrottle)
				}
				r.Post("/message", h.SendMessage)
			})
			r.Get("/ws/{user_id}", h.ChatWS)
		})

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", h.ListAgents)
			r.Get("/{agent_id}", h.GetAgent)
		})

		r.Route("/models", func(r chi.Router) {
			r.Get("/", h.ListModels)
			r.Get("/{model_id}", h.GetModel)
		})

		r.Route("/subscription", func(r chi.Router) {
			r.Get("/status/{user_id}", h.SubscriptionStatus)
			r.Post("/verify", h.VerifyReceipt)
		})
	})

	r.Route("/usage", func(r chi.Router) {
		if h.IdentityMiddleware != nil {
			r.Use(h.IdentityMiddleware)
		}
		r.Get("/status/{user_id}", h.UsageStatus)
		r.Post("/reset/{user_id}", h.UsageReset)
		r.Put("/premium/{user_id}", h.SetPremium)
	})

	return r
}
