package runtime

import "errors"

// Validation sentinels. These reject an operation synchronously, before
// any side effect: no diagnostics cleared, no process spawned, guard
// net-untouched. Use errors.Is for typed assertions.
var (
	// ErrDeployInProgress indicates another deployment holds the
	// single-flight guard.
	ErrDeployInProgress = errors.New("deployment already in progress")

	// ErrCLINotFound indicates the external deploy or change-detection
	// tool could not be resolved.
	ErrCLINotFound = errors.New("deploy CLI not found")

	// ErrNoDeployableFiles indicates a selected-set deploy resolved zero
	// files from the selection list.
	ErrNoDeployableFiles = errors.New("no deployable files in selection")
)

// errStageFailed halts a pipeline after a stage recorded its terminal
// outcome on the operation. Never surfaces to callers.
var errStageFailed = errors.New("stage failed")

// IsValidation reports whether err is a pre-spawn validation rejection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrDeployInProgress) ||
		errors.Is(err, ErrCLINotFound) ||
		errors.Is(err, ErrNoDeployableFiles)
}
