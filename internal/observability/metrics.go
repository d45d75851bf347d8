package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm360manager_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cm360manager_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// publish attempts per entity kind and item outcome
	PublishItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm360manager_publish_items_total",
			Help: "Draft publish attempts by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)

	// batch outcomes (all_succeeded, partial, all_failed, nothing)
	PublishBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm360manager_publish_batches_total",
			Help: "Publish batches by entity and aggregate outcome",
		},
		[]string{"entity", "outcome"},
	)

	// calls made to the CM360 API
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm360manager_gateway_requests_total",
			Help: "CM360 API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cm360manager_gateway_duration_seconds",
			Help:    "Duration of CM360 API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// requests relayed by the reverse proxy, by upstream status
	ProxyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm360manager_proxy_requests_total",
			Help: "Requests relayed to googleapis.com",
		},
		[]string{"status"},
	)

	ProxyUpstreamErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cm360manager_proxy_upstream_errors_total",
			Help: "Proxy requests that failed to reach the upstream",
		},
	)

	// login attempts labelled by result category
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm360manager_auth_attempts_total",
			Help: "Token validation attempts by outcome",
		},
		[]string{"outcome"},
	)

	AssistantRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm360manager_assistant_requests_total",
			Help: "LLM assistant calls by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		PublishItems,
		PublishBatches,
		GatewayRequests,
		GatewayLatency,
		ProxyRequests,
		ProxyUpstreamErrors,
		AuthAttempts,
		AssistantRequests,
	)
}
