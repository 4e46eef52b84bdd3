// Package diag extracts file-scoped diagnostics from deploy failure
// payloads and owns the process-wide diagnostics store.
package diag

import (
	"path/filepath"

	"github.com/justapithecus/foundry/types"
)

// Extract merges the two places the deploy tool reports a component
// failure into one record per component full name. Component-level
// entries contribute file name, line, column, problem type and component
// type; file-level entries with a non-empty error contribute file path
// and message.
//
// Merging is keep-biased: a field set by an earlier entry is never
// overwritten by a later one. See mergeKeepExisting for the field rules.
func Extract(failures []types.ComponentFailure, files []types.FileStatus) map[string]*types.FailureRecord {
	records := make(map[string]*types.FailureRecord)

	for _, cf := range failures {
		mergeKeepExisting(records, cf.FullName, &types.FailureRecord{
			FullName:      cf.FullName,
			FileName:      cf.FileName,
			Line:          cf.LineNumber.Int(),
			Column:        cf.ColumnNumber.Int(),
			ProblemType:   cf.ProblemType,
			ComponentType: cf.ComponentType,
		})
	}

	for _, fs := range files {
		if fs.Error == "" {
			continue
		}
		mergeKeepExisting(records, fs.FullName, &types.FailureRecord{
			FullName: fs.FullName,
			FilePath: fs.FilePath,
			Message:  fs.Error,
		})
	}

	return records
}

// mergeKeepExisting upserts incoming into records under key. For an
// existing record, each field is taken from incoming only when the
// stored field is still zero-valued:
//
//	strings: filled only when currently ""
//	line/column: filled only when currently 0 (absent)
//
// A populated field is never overwritten.
func mergeKeepExisting(records map[string]*types.FailureRecord, key string, incoming *types.FailureRecord) {
	existing, ok := records[key]
	if !ok {
		records[key] = incoming
		return
	}

	if existing.FileName == "" {
		existing.FileName = incoming.FileName
	}
	if existing.FilePath == "" {
		existing.FilePath = incoming.FilePath
	}
	if existing.Line == 0 {
		existing.Line = incoming.Line
	}
	if existing.Column == 0 {
		existing.Column = incoming.Column
	}
	if existing.ProblemType == "" {
		existing.ProblemType = incoming.ProblemType
	}
	if existing.ComponentType == "" {
		existing.ComponentType = incoming.ComponentType
	}
	if existing.Message == "" {
		existing.Message = incoming.Message
	}
}

// ToDiagnostics derives editor diagnostics from merged failure records,
// keyed by owning file name. Only records whose problem type is "Error"
// produce a diagnostic; any other problem type skips that record alone
// and extraction continues with the rest.
//
// Line and column default to 1 when the tool omitted them, then shift to
// zero-based, so an omitted position lands at 0,0. End column is always
// the sentinel (render to end of line).
func ToDiagnostics(records map[string]*types.FailureRecord) map[string]types.DiagnosticRecord {
	diags := make(map[string]types.DiagnosticRecord)

	for _, rec := range records {
		if rec.ProblemType != types.ProblemTypeError {
			continue
		}

		line := rec.Line
		if line < 1 {
			line = 1
		}
		col := rec.Column
		if col < 1 {
			col = 1
		}

		name := owningFileName(rec)
		if name == "" {
			continue
		}

		diags[name] = types.DiagnosticRecord{
			File:      name,
			Severity:  types.SeverityError,
			Message:   rec.Message,
			Line:      line - 1,
			Column:    col - 1,
			EndColumn: types.EndColumnSentinel,
		}
	}

	return diags
}

// owningFileName picks the file name the sink keys on: the base name of
// the component-level file name when present, otherwise of the file path.
func owningFileName(rec *types.FailureRecord) string {
	if rec.FileName != "" {
		return filepath.Base(rec.FileName)
	}
	if rec.FilePath != "" {
		return filepath.Base(rec.FilePath)
	}
	return ""
}
