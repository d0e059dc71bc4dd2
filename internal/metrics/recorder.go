package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultAborted ResultLabel = "aborted"
)

// Recorder defines observability hooks for remote requests, mutations and
// top-level operations. Implementations may forward to Prometheus.
type Recorder interface {
	// IncRequest counts one API round trip; status 0 means a transport failure.
	IncRequest(method string, status int)
	// IncPages counts pages consumed while traversing a paginated collection.
	IncPages(n int)
	// IncMutation counts a computed mutation and whether it was applied.
	IncMutation(kind string, applied bool)
	ObserveOperationDuration(operation string, d time.Duration)
	IncOperationResult(operation string, result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncRequest(string, int)                         {}
func (NoopRecorder) IncPages(int)                                   {}
func (NoopRecorder) IncMutation(string, bool)                       {}
func (NoopRecorder) ObserveOperationDuration(string, time.Duration) {}
func (NoopRecorder) IncOperationResult(string, ResultLabel)         {}
