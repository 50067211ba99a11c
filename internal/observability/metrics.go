package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	requestTime   map[string]time.Duration
	errorCount    map[string]int64
	auditDrops    map[string]int64
	auditRecorded int64
}

// Snapshot is a point-in-time copy of the counters, served on /metrics.
type Snapshot struct {
	Requests        map[string]int64 `json:"requests"`
	AvgLatencyMs    map[string]int64 `json:"avg_latency_ms"`
	Errors          map[string]int64 `json:"errors"`
	AuditDropped    map[string]int64 `json:"audit_dropped"`
	AuditRecorded   int64            `json:"audit_recorded"`
	AuditDropsTotal int64            `json:"audit_dropped_total"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		requestTime:  make(map[string]time.Duration),
		errorCount:   make(map[string]int64),
		auditDrops:   make(map[string]int64),
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
	m.requestTime[key] += duration
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

// RecordAuditDrop counts an audit entry that could not be written.
func (m *Metrics) RecordAuditDrop(action string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditDrops[action]++
}

// RecordAuditWrite counts a committed audit entry.
func (m *Metrics) RecordAuditWrite() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditRecorded++
}

// AuditDrops returns the number of dropped entries for action.
func (m *Metrics) AuditDrops(action string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auditDrops[action]
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests:     map[string]int64{},
		AvgLatencyMs: map[string]int64{},
		Errors:       map[string]int64{},
		AuditDropped: map[string]int64{},
	}
	if m == nil {
		return snap
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		snap.Requests[k] = v
		if v > 0 {
			snap.AvgLatencyMs[k] = (m.requestTime[k] / time.Duration(v)).Milliseconds()
		}
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.auditDrops {
		snap.AuditDropped[k] = v
		snap.AuditDropsTotal += v
	}
	snap.AuditRecorded = m.auditRecorded
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
