package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncStudentCreated is a no-op.
func (n *NoopRecorder) IncStudentCreated() {}

// IncStudentCreateFailed is a no-op.
func (n *NoopRecorder) IncStudentCreateFailed() {}

// IncStudentUpdated is a no-op.
func (n *NoopRecorder) IncStudentUpdated() {}

// IncStudentUpdateFailed is a no-op.
func (n *NoopRecorder) IncStudentUpdateFailed() {}

// IncStudentCacheHit is a no-op.
func (n *NoopRecorder) IncStudentCacheHit() {}

// IncStudentCacheMiss is a no-op.
func (n *NoopRecorder) IncStudentCacheMiss() {}

// IncFormRejected is a no-op.
func (n *NoopRecorder) IncFormRejected(form string) {}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}
