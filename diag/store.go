package diag

import (
	"sync"

	"github.com/justapithecus/foundry/types"
)

// Sink receives diagnostics produced by a deploy operation. The editor
// integration matches record file names against open buffers.
type Sink interface {
	// Publish replaces the sink's contents with the given records.
	Publish(records map[string]types.DiagnosticRecord)
	// Clear removes all records. Must be idempotent.
	Clear()
}

// Store is the process-wide diagnostics store, keyed by file name (not
// full path). Records persist until explicitly cleared at the start of
// the next deploy operation. Store implements Sink.
//
// Deploy operations are single-flight, so there is never more than one
// writer; the mutex covers concurrent readers (the editor sink side).
type Store struct {
	mu      sync.Mutex
	records map[string]types.DiagnosticRecord
}

// NewStore creates an empty diagnostics store.
func NewStore() *Store {
	return &Store{records: make(map[string]types.DiagnosticRecord)}
}

// Publish replaces the stored diagnostics with records.
func (s *Store) Publish(records map[string]types.DiagnosticRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]types.DiagnosticRecord, len(records))
	for name, rec := range records {
		s.records[name] = rec
	}
}

// Clear removes all stored diagnostics. Idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]types.DiagnosticRecord)
}

// Get returns the diagnostic for a file name, if any.
func (s *Store) Get(file string) (types.DiagnosticRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[file]
	return rec, ok
}

// All returns a copy of all stored diagnostics keyed by file name.
func (s *Store) All() map[string]types.DiagnosticRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]types.DiagnosticRecord, len(s.records))
	for name, rec := range s.records {
		out[name] = rec
	}
	return out
}

// Len returns the number of stored diagnostics.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
