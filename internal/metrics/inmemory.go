package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	StudentsCreated     uint64
	StudentCreateFailed uint64
	StudentsUpdated     uint64
	StudentUpdateFailed uint64
	StudentCacheHits    uint64
	StudentCacheMisses  uint64
	FormsRejected       map[string]uint64
	HTTPRequests        uint64
	HTTPDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	studentsCreated     uint64
	studentCreateFailed uint64
	studentsUpdated     uint64
	studentUpdateFailed uint64
	studentCacheHits    uint64
	studentCacheMisses  uint64
	httpRequests        uint64
	httpDurationTotalNs int64

	mu            sync.Mutex
	formsRejected map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{formsRejected: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	rejected := make(map[string]uint64, len(m.formsRejected))
	for k, v := range m.formsRejected {
		rejected[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		StudentsCreated:     atomic.LoadUint64(&m.studentsCreated),
		StudentCreateFailed: atomic.LoadUint64(&m.studentCreateFailed),
		StudentsUpdated:     atomic.LoadUint64(&m.studentsUpdated),
		StudentUpdateFailed: atomic.LoadUint64(&m.studentUpdateFailed),
		StudentCacheHits:    atomic.LoadUint64(&m.studentCacheHits),
		StudentCacheMisses:  atomic.LoadUint64(&m.studentCacheMisses),
		FormsRejected:       rejected,
		HTTPRequests:        atomic.LoadUint64(&m.httpRequests),
		HTTPDurationTotalNs: atomic.LoadInt64(&m.httpDurationTotalNs),
	}
}

// IncStudentCreated increments the created counter.
func (m *InMemoryRecorder) IncStudentCreated() {
	atomic.AddUint64(&m.studentsCreated, 1)
}

// IncStudentCreateFailed increments the create failure counter.
func (m *InMemoryRecorder) IncStudentCreateFailed() {
	atomic.AddUint64(&m.studentCreateFailed, 1)
}

// IncStudentUpdated increments the updated counter.
func (m *InMemoryRecorder) IncStudentUpdated() {
	atomic.AddUint64(&m.studentsUpdated, 1)
}

// IncStudentUpdateFailed increments the update failure counter.
func (m *InMemoryRecorder) IncStudentUpdateFailed() {
	atomic.AddUint64(&m.studentUpdateFailed, 1)
}

// IncStudentCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncStudentCacheHit() {
	atomic.AddUint64(&m.studentCacheHits, 1)
}

// IncStudentCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncStudentCacheMiss() {
	atomic.AddUint64(&m.studentCacheMisses, 1)
}

// IncFormRejected increments the rejection counter for form.
func (m *InMemoryRecorder) IncFormRejected(form string) {
	m.mu.Lock()
	m.formsRejected[form]++
	m.mu.Unlock()
}

// ObserveHTTPRequest records one served request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
	atomic.AddInt64(&m.httpDurationTotalNs, duration.Nanoseconds())
}
