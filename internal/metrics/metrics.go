package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentchat_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ChatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_chat_messages_total",
			Help: "Chat messages processed by the pipeline, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	FreeTokensConsumedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agentchat_free_tokens_consumed_total",
			Help: "Free-tier tokens consumed across all users.",
		},
	)

	ProviderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentchat_provider_failures_total",
			Help: "Generation provider failures, labeled by classification.",
		},
		[]string{"kind"},
	)

	WSConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentchat_ws_connections_active",
			Help: "Currently open WebSocket chat sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChatMessagesTotal,
		FreeTokensConsumedTotal,
		ProviderFailuresTotal,
		WSConnectionsActive,
	)
}
