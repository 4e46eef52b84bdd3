// Package history persists deploy outcomes to a local append-only
// msgpack stream, one record per finished operation.
package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/foundry/types"
)

// RecordVersion is the history record format version. Bumped in
// lockstep with types.Version when the record shape changes.
const RecordVersion = types.Version

// DeployRecord is the storage format for one finished deploy operation.
// Fields use msgpack tags; the stream is a plain concatenation of
// records (msgpack values self-delimit).
type DeployRecord struct {
	// Version is the record format version.
	Version string `msgpack:"version"`
	// OpID is the operation identifier.
	OpID string `msgpack:"op_id"`
	// Ts is the completion timestamp in RFC 3339 UTC.
	Ts string `msgpack:"ts"`
	// Variant is the deploy variant.
	Variant types.DeployVariant `msgpack:"variant"`
	// Status is the terminal outcome status.
	Status types.OutcomeStatus `msgpack:"status"`
	// Message is the terminal notification message.
	Message string `msgpack:"message"`
	// ExitCode is the deploy process exit code, when one ran.
	ExitCode int `msgpack:"exit_code"`
	// DurationMs is the total operation duration.
	DurationMs int64 `msgpack:"duration_ms"`
	// DiagnosticCount is the number of diagnostics produced.
	DiagnosticCount int `msgpack:"diagnostic_count"`
}

// NewRecord builds a record for a finished operation, stamping the
// format version and completion time.
func NewRecord(opID string, variant types.DeployVariant, status types.OutcomeStatus, message string, exitCode int, duration time.Duration, diagnostics int) DeployRecord {
	return DeployRecord{
		Version:         RecordVersion,
		OpID:            opID,
		Ts:              time.Now().UTC().Format(time.RFC3339),
		Variant:         variant,
		Status:          status,
		Message:         message,
		ExitCode:        exitCode,
		DurationMs:      duration.Milliseconds(),
		DiagnosticCount: diagnostics,
	}
}

// Log is an append-only deploy history at a fixed path.
type Log struct {
	path string
}

// NewLog creates a history log writing to path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Record appends one record to the log, creating the file and parent
// directory as needed.
func (l *Log) Record(rec DeployRecord) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create history directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open history log: %w", err)
	}

	if err := msgpack.NewEncoder(f).Encode(rec); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot encode history record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close history log: %w", err)
	}
	return nil
}

// Read returns all records in append order. A missing log file is an
// empty history, not an error.
func (l *Log) Read() ([]DeployRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot open history log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []DeployRecord
	dec := msgpack.NewDecoder(f)
	for {
		var rec DeployRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("corrupt history record at index %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Tail returns the last n records in append order. n <= 0 returns all.
func (l *Log) Tail(n int) ([]DeployRecord, error) {
	records, err := l.Read()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}
