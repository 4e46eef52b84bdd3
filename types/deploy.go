// Package types defines core domain types for the Foundry runtime.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SourceConflictName is the type tag the deploy tool uses for conflict payloads.
const SourceConflictName = "SourceConflictError"

// DeployVariant identifies which deployment operation produced a result.
type DeployVariant string

// Deployment variants.
const (
	VariantSingleFile  DeployVariant = "single_file"
	VariantChangedSet  DeployVariant = "changed_set"
	VariantSelectedSet DeployVariant = "selected_set"
)

// DeployResponse is the top-level JSON payload written to stdout by the
// deploy tool. Two shapes share this envelope: a result payload
// (Status/Result populated) and a conflict payload (Name/Message populated,
// Name == SourceConflictName). Field names match the tool's wire format.
type DeployResponse struct {
	// Status is the tool-level status code.
	Status int `json:"status"`
	// Result is the deploy result, present on result payloads.
	Result *DeployResult `json:"result,omitempty"`
	// Name is the error type tag on error payloads.
	Name string `json:"name,omitempty"`
	// Message is the human-readable message on error payloads.
	Message string `json:"message,omitempty"`
}

// DeployResult is the result object of a deploy response.
type DeployResult struct {
	// Status is the textual deploy status (e.g. "Succeeded", "Failed").
	Status string `json:"status"`
	// Success reports whether the deploy succeeded.
	Success bool `json:"success"`
	// Details holds per-component failure details.
	Details *ResultDetails `json:"details,omitempty"`
	// Files lists per-file deploy status entries.
	Files []FileStatus `json:"files,omitempty"`
}

// ResultDetails holds the failure detail section of a deploy result.
type ResultDetails struct {
	// ComponentFailures lists compile/validation failures per component.
	ComponentFailures []ComponentFailure `json:"componentFailures,omitempty"`
}

// ComponentFailure is one compile/validation failure attributed to a
// named deployable component.
type ComponentFailure struct {
	FullName      string  `json:"fullName"`
	FileName      string  `json:"fileName"`
	LineNumber    FlexInt `json:"lineNumber"`
	ColumnNumber  FlexInt `json:"columnNumber"`
	ProblemType   string  `json:"problemType"`
	ComponentType string  `json:"componentType"`
}

// FileStatus is one per-file entry of a deploy result.
type FileStatus struct {
	FullName string `json:"fullName"`
	FilePath string `json:"filePath"`
	Error    string `json:"error"`
}

// FlexInt is an int that decodes from either a JSON number or a quoted
// number. The deploy tool is inconsistent about which it emits for line
// and column fields ("10" vs 10). Zero means the field was absent.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid numeric value %q: %w", data, err)
	}
	*f = FlexInt(n)
	return nil
}

// MarshalJSON implements json.Marshaler. FlexInt always re-encodes as a
// plain number regardless of the input form.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(f))
}

// Int returns the value as a plain int.
func (f FlexInt) Int() int { return int(f) }
