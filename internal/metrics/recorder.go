package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// RenderKind identifies which renderer entry point was used.
type RenderKind string

const (
	RenderTemplate RenderKind = "template"
	RenderString   RenderKind = "string"
	RenderSegment  RenderKind = "segment"
	RenderLayout   RenderKind = "layout"
)

// Recorder defines observability hooks for rendering and builds. Implementations
// may forward to Prometheus or any other backend.
type Recorder interface {
	ObserveRenderDuration(kind RenderKind, d time.Duration)
	IncRenderResult(kind RenderKind, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome ResultLabel)
	SetPagesBuilt(n int)
	AddExtensions(kind string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRenderDuration(RenderKind, time.Duration) {}
func (NoopRecorder) IncRenderResult(RenderKind, ResultLabel)         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)              {}
func (NoopRecorder) IncBuildOutcome(ResultLabel)                     {}
func (NoopRecorder) SetPagesBuilt(int)                               {}
func (NoopRecorder) AddExtensions(string, int)                       {}

// ResultOf maps an error to a result label.
func ResultOf(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}
