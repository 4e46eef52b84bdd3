// Package adapter defines the integration boundary for deploy
// completion events.
//
// Adapters publish deploy completion notifications to downstream
// systems (CI gates, chat hooks, dashboards). The CLI owns adapter
// lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/justapithecus/foundry/runtime"
	"github.com/justapithecus/foundry/types"
)

// EventType is the event_type value of every published event.
const EventType = "deploy_completed"

// DeployCompletedEvent is the payload published when a deploy finishes.
type DeployCompletedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "deploy_completed"
	OpID            string `json:"op_id"`
	Variant         string `json:"variant"`
	Status          string `json:"status"` // success, component_failures, etc.
	Message         string `json:"message"`
	ExitCode        int    `json:"exit_code"`
	DiagnosticCount int    `json:"diagnostic_count"`
	DurationMs      int64  `json:"duration_ms"`
	Timestamp       string `json:"timestamp"` // ISO 8601
}

// NewEvent builds the completion event for a finished deploy operation.
func NewEvent(d *runtime.Deployment, result *runtime.Result) *DeployCompletedEvent {
	return &DeployCompletedEvent{
		ContractVersion: types.Version,
		EventType:       EventType,
		OpID:            d.OpID(),
		Variant:         string(d.Variant),
		Status:          string(result.Outcome.Status),
		Message:         result.Outcome.Message,
		ExitCode:        result.Outcome.ExitCode,
		DiagnosticCount: len(result.Diagnostics),
		DurationMs:      result.Duration.Milliseconds(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}

// Adapter publishes deploy completion events to a downstream system.
// Implementations must be safe for single-use per operation.
type Adapter interface {
	// Publish sends a deploy completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *DeployCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
