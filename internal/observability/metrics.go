package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the SLA pipeline and the
// HTTP surface.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	scanRuns        int64
	scanSkips       int64
	scanItemErrors  int64
	escalations     map[int]int64
	notifications   map[string]int64
	dedupSuppressed int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		escalations:   make(map[int]int64),
		notifications: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
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

// RecordScanRun counts one completed detector tick.
func (m *Metrics) RecordScanRun() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanRuns++
}

// RecordScanSkip counts a tick skipped because the job lock was held.
func (m *Metrics) RecordScanSkip() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanSkips++
}

// RecordScanItemError counts a per-ticket failure inside a scan.
func (m *Metrics) RecordScanItemError() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanItemErrors++
}

// RecordEscalation counts an escalation at the given level.
func (m *Metrics) RecordEscalation(level int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalations[level]++
}

// RecordNotification counts a delivery attempt outcome per channel.
func (m *Metrics) RecordNotification(channel string, ok bool) {
	if m == nil {
		return
	}
	key := channel
	if !ok {
		key += "|failed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[key]++
}

// RecordDedupSuppressed counts a notification skipped by the dedup gate.
func (m *Metrics) RecordDedupSuppressed() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dedupSuppressed++
}

// Snapshot returns a copy of all counters, keyed for the debug endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64)
	for k, v := range m.requestCount {
		out["request|"+k] = v
	}
	for k, v := range m.errorCount {
		out["error|"+k] = v
	}
	out["scan_runs"] = m.scanRuns
	out["scan_skips"] = m.scanSkips
	out["scan_item_errors"] = m.scanItemErrors
	for level, v := range m.escalations {
		out["escalations|level_"+strconv.Itoa(level)] = v
	}
	for k, v := range m.notifications {
		out["notifications|"+k] = v
	}
	out["dedup_suppressed"] = m.dedupSuppressed
	return out
}
