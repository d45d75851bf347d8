package observability

import (
	"strings"
	"sync"
	"time"
)

// MockMetricsRegistry records counter increments so tests can assert on them.
// Latencies are accepted and dropped.
type MockMetricsRegistry struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMockMetricsRegistry returns an empty recording registry.
func NewMockMetricsRegistry() *MockMetricsRegistry {
	return &MockMetricsRegistry{counts: make(map[string]int)}
}

func (m *MockMetricsRegistry) inc(name string, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[key(name, labels)]++
}

func key(name string, labels []string) string {
	return name + "{" + strings.Join(labels, ",") + "}"
}

// Count returns how often the named counter was incremented with labels.
func (m *MockMetricsRegistry) Count(name string, labels ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key(name, labels)]
}

func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.inc("requests", endpoint, method, status)
}
func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (m *MockMetricsRegistry) IncrementPublishItem(entity, outcome string) {
	m.inc("publish_item", entity, outcome)
}
func (m *MockMetricsRegistry) IncrementPublishBatch(entity, outcome string) {
	m.inc("publish_batch", entity, outcome)
}
func (m *MockMetricsRegistry) IncrementGatewayRequests(operation, outcome string) {
	m.inc("gateway", operation, outcome)
}
func (m *MockMetricsRegistry) RecordGatewayLatency(operation string, duration time.Duration) {}
func (m *MockMetricsRegistry) IncrementProxyRequests(status string) {
	m.inc("proxy", status)
}
func (m *MockMetricsRegistry) IncrementProxyUpstreamErrors() { m.inc("proxy_upstream_errors") }
func (m *MockMetricsRegistry) IncrementAuthAttempts(outcome string) {
	m.inc("auth", outcome)
}
func (m *MockMetricsRegistry) IncrementAssistantRequests(kind, outcome string) {
	m.inc("assistant", kind, outcome)
}
