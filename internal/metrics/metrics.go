// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Student lifecycle
	IncStudentCreated()
	IncStudentCreateFailed()
	IncStudentUpdated()
	IncStudentUpdateFailed()

	// Student cache
	IncStudentCacheHit()
	IncStudentCacheMiss()

	// Form submissions rejected by validation, by form ("create" or "edit").
	IncFormRejected(form string)

	// HTTP
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
