package runtime

import "sync/atomic"

// Flight is the single-flight token for deploy operations: at most one
// deployment may hold it at a time. It is an explicit acquire/release
// token rather than a shared nullable cell so ownership transitions are
// race-free regardless of which goroutine releases.
type Flight struct {
	held atomic.Bool
}

// NewFlight creates an unheld token.
func NewFlight() *Flight {
	return &Flight{}
}

// TryAcquire takes the token. Returns false if a deployment already
// holds it.
func (f *Flight) TryAcquire() bool {
	return f.held.CompareAndSwap(false, true)
}

// Release returns the token. Safe to call on an unheld token.
func (f *Flight) Release() {
	f.held.Store(false)
}

// InFlight reports whether a deployment currently holds the token.
func (f *Flight) InFlight() bool {
	return f.held.Load()
}
