package types

// OutcomeStatus classifies the terminal state of a deploy operation.
type OutcomeStatus string

// Outcome statuses. Exactly one applies to any classified result.
const (
	// OutcomeSuccess indicates the deploy succeeded.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeSourceConflict indicates the tool refused to deploy over
	// remote changes. Not a compile error; produces no diagnostics.
	OutcomeSourceConflict OutcomeStatus = "source_conflict"
	// OutcomeComponentFailures indicates one or more component
	// compile/validation failures.
	OutcomeComponentFailures OutcomeStatus = "component_failures"
	// OutcomeProcessFailure indicates the tool exited non-zero without a
	// classifiable failure payload.
	OutcomeProcessFailure OutcomeStatus = "process_failure"
	// OutcomeParseFailure indicates stdout was not valid JSON.
	OutcomeParseFailure OutcomeStatus = "parse_failure"
	// OutcomeManifestFailure indicates the change-detection stage failed
	// before the deploy stage started.
	OutcomeManifestFailure OutcomeStatus = "manifest_failure"
)

// Outcome is the tagged classification of one deploy invocation.
// Status selects which of the remaining fields are meaningful.
type Outcome struct {
	// Status is the outcome tag.
	Status OutcomeStatus
	// Message is a human-readable description. For source conflicts this
	// is the tool's message verbatim.
	Message string
	// ExitCode is the process exit code (process failures).
	ExitCode int
	// Payload is the decoded response (success and component failures).
	Payload *DeployResponse
	// Failures holds merged failure records keyed by component full name
	// (component failures only).
	Failures map[string]*FailureRecord
}

// IsSuccess reports whether the outcome is a successful deploy.
func (o *Outcome) IsSuccess() bool { return o.Status == OutcomeSuccess }
