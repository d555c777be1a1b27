package metrics

import "time"

// ResultLabel enumerates per-target result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for sync runs and individual targets.
type Recorder interface {
	ObserveTargetDuration(target string, d time.Duration)
	ObserveSyncDuration(d time.Duration)
	IncTargetResult(target string, result ResultLabel)
	AddLinesChanged(target string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTargetDuration(string, time.Duration) {}
func (NoopRecorder) ObserveSyncDuration(time.Duration)           {}
func (NoopRecorder) IncTargetResult(string, ResultLabel)         {}
func (NoopRecorder) AddLinesChanged(string, int)                 {}
