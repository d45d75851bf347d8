package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// so components receive it by injection instead of touching Prometheus
// globals.
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Publish metrics
	IncrementPublishItem(entity, outcome string)
	IncrementPublishBatch(entity, outcome string)

	// CM360 API metrics
	IncrementGatewayRequests(operation, outcome string)
	RecordGatewayLatency(operation string, duration time.Duration)

	// Proxy metrics
	IncrementProxyRequests(status string)
	IncrementProxyUpstreamErrors()

	// Auth metrics
	IncrementAuthAttempts(outcome string)

	// Assistant metrics
	IncrementAssistantRequests(kind, outcome string)
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementPublishItem(entity, outcome string) {
	PublishItems.WithLabelValues(entity, outcome).Inc()
}

func (r *PrometheusRegistry) IncrementPublishBatch(entity, outcome string) {
	PublishBatches.WithLabelValues(entity, outcome).Inc()
}

func (r *PrometheusRegistry) IncrementGatewayRequests(operation, outcome string) {
	GatewayRequests.WithLabelValues(operation, outcome).Inc()
}

func (r *PrometheusRegistry) RecordGatewayLatency(operation string, duration time.Duration) {
	GatewayLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementProxyRequests(status string) {
	ProxyRequests.WithLabelValues(status).Inc()
}

func (r *PrometheusRegistry) IncrementProxyUpstreamErrors() {
	ProxyUpstreamErrors.Inc()
}

func (r *PrometheusRegistry) IncrementAuthAttempts(outcome string) {
	AuthAttempts.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementAssistantRequests(kind, outcome string) {
	AssistantRequests.WithLabelValues(kind, outcome).Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementPublishItem(entity, outcome string)                         {}
func (r *NoOpRegistry) IncrementPublishBatch(entity, outcome string)                        {}
func (r *NoOpRegistry) IncrementGatewayRequests(operation, outcome string)                  {}
func (r *NoOpRegistry) RecordGatewayLatency(operation string, duration time.Duration)       {}
func (r *NoOpRegistry) IncrementProxyRequests(status string)                                {}
func (r *NoOpRegistry) IncrementProxyUpstreamErrors()                                       {}
func (r *NoOpRegistry) IncrementAuthAttempts(outcome string)                                {}
func (r *NoOpRegistry) IncrementAssistantRequests(kind, outcome string)                     {}
