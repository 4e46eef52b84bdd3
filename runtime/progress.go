package runtime

import "sync"

// Progress reports the status of one deploy operation. A handle is bound
// to exactly one operation and terminated exactly once via Finish.
type Progress interface {
	// Report updates the current stage message and completion percent.
	Report(message string, percent int)
	// Finish terminates the handle. Called exactly once per operation.
	Finish()
}

// ProgressFactory creates a Progress handle titled for one operation.
type ProgressFactory func(title string) Progress

// NoopProgress is the default backend when no UI is attached: every
// operation is a no-op (graceful degradation).
type NoopProgress struct{}

// NewNoopProgress is a ProgressFactory returning NoopProgress.
func NewNoopProgress(string) Progress { return NoopProgress{} }

// Report implements Progress.
func (NoopProgress) Report(string, int) {}

// Finish implements Progress.
func (NoopProgress) Finish() {}

// progressHandle wraps a backend handle so Finish executes exactly once
// however many terminal paths reach it.
type progressHandle struct {
	inner Progress
	once  sync.Once
}

func newProgressHandle(inner Progress) *progressHandle {
	return &progressHandle{inner: inner}
}

func (h *progressHandle) Report(message string, percent int) {
	h.inner.Report(message, percent)
}

func (h *progressHandle) Finish() {
	h.once.Do(h.inner.Finish)
}
