package types

// ProblemTypeError is the problemType value that maps to a diagnostic.
// Other problem types (e.g. "Warning") are excluded from diagnostics.
const ProblemTypeError = "Error"

// EndColumnSentinel marks a diagnostic with no known end column.
// The deploy tool never reports one, so consumers render to end of line.
const EndColumnSentinel = 255

// FailureRecord is one component failure merged from the two places the
// deploy tool reports it: the component-level record (name, line, column,
// problem type) and the file-level record (path, error message) sharing
// the same full name. Line and column are 1-based as reported; zero means
// the tool omitted the field.
type FailureRecord struct {
	FullName      string
	FileName      string
	FilePath      string
	Line          int
	Column        int
	ProblemType   string
	ComponentType string
	Message       string
}

// Severity is the severity attached to a diagnostic or notification.
type Severity string

// Severity levels.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DiagnosticRecord is a file-scoped diagnostic derived from a
// FailureRecord, in the shape the editor sink consumes. Line and Column
// are zero-based; a record whose source omitted them lands at 0,0.
type DiagnosticRecord struct {
	// File is the owning file name (base name, not full path). The sink
	// matches it against open editor buffers.
	File string
	// Severity is the diagnostic severity.
	Severity Severity
	// Message is the failure message.
	Message string
	// Line is the zero-based line.
	Line int
	// Column is the zero-based start column.
	Column int
	// EndColumn is always EndColumnSentinel.
	EndColumn int
}
