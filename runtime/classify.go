package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/justapithecus/foundry/diag"
	"github.com/justapithecus/foundry/types"
)

// deploySucceededStatus is the result.status value for a clean deploy.
const deploySucceededStatus = "Succeeded"

// Classify maps one deploy invocation's (stdout, exit code) to exactly
// one tagged outcome:
//
//  1. Non-JSON stdout is a parse failure regardless of exit code; the
//     tool was invoked with its JSON flag, so anything else is an error.
//  2. A SourceConflictError payload is a conflict. Checked before the
//     success shape so a conflict carrying a result-like body is never
//     misread as a failed deploy.
//  3. result.status == "Succeeded" with result.success true is success.
//  4. Anything else: extract component failure records; with zero
//     records and a non-zero exit, fall back to a process failure.
func Classify(stdout string, exitCode int) *types.Outcome {
	var resp types.DeployResponse
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		return &types.Outcome{
			Status:   types.OutcomeParseFailure,
			Message:  "deploy output is not valid JSON",
			ExitCode: exitCode,
		}
	}

	if resp.Name == types.SourceConflictName {
		return &types.Outcome{
			Status:  types.OutcomeSourceConflict,
			Message: resp.Message,
		}
	}

	if resp.Result != nil && resp.Result.Status == deploySucceededStatus && resp.Result.Success {
		return &types.Outcome{
			Status:  types.OutcomeSuccess,
			Message: "Deployment successful",
			Payload: &resp,
		}
	}

	var componentFailures []types.ComponentFailure
	var files []types.FileStatus
	if resp.Result != nil {
		if resp.Result.Details != nil {
			componentFailures = resp.Result.Details.ComponentFailures
		}
		files = resp.Result.Files
	}

	records := diag.Extract(componentFailures, files)
	if len(records) == 0 && exitCode != 0 {
		return &types.Outcome{
			Status:   types.OutcomeProcessFailure,
			Message:  fmt.Sprintf("deploy command exited with code %d", exitCode),
			ExitCode: exitCode,
		}
	}

	return &types.Outcome{
		Status:   types.OutcomeComponentFailures,
		Message:  fmt.Sprintf("deployment failed: %d component failure(s)", len(records)),
		ExitCode: exitCode,
		Payload:  &resp,
		Failures: records,
	}
}
