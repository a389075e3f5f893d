package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for UI requests and backend calls.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	backendCount map[string]int64
	backendTime  map[string]time.Duration
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Requests       map[string]int64 `json:"requests"`
	Errors         map[string]int64 `json:"errors"`
	BackendCalls   map[string]int64 `json:"backend_calls"`
	BackendLatency map[string]int64 `json:"backend_latency_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		backendCount: make(map[string]int64),
		backendTime:  make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordBackendCall counts a call to the catalog backend. Status 0 means no response.
func (m *Metrics) RecordBackendCall(endpoint, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(endpoint, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backendCount[key]++
	m.backendTime[key] += duration
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Requests:       map[string]int64{},
		Errors:         map[string]int64{},
		BackendCalls:   map[string]int64{},
		BackendLatency: map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		snap.Requests[k] = v
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.backendCount {
		snap.BackendCalls[k] = v
		snap.BackendLatency[k] = m.backendTime[k].Milliseconds()
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
