// Package metrics provides per-process deploy metrics collection.
//
// The Collector accumulates counters across deploy operations. It is a
// leaf package with no internal dependencies. All increment methods are
// nil-receiver safe, so an orchestrator without a collector attached
// pays nothing.
package metrics

import (
	"sync"

	"github.com/justapithecus/foundry/types"
)

// Snapshot is an immutable point-in-time view of the deploy counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Operation lifecycle
	DeploysStarted  int64
	DeploysByStatus map[types.OutcomeStatus]int64
	DeploysRejected int64

	// Diagnostics
	DiagnosticsPublished int64

	// Persistence
	CacheWriteFailures   int64
	HistoryWriteFailures int64

	// Dimensions (informational, set at construction)
	DeployCLI string
	DeltaCLI  string
}

// Collector accumulates deploy metrics. Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	deploysStarted  int64
	deploysByStatus map[types.OutcomeStatus]int64
	deploysRejected int64

	diagnosticsPublished int64

	cacheWriteFailures   int64
	historyWriteFailures int64

	deployCLI string
	deltaCLI  string
}

// NewCollector creates a Collector with tool dimension labels.
func NewCollector(deployCLI, deltaCLI string) *Collector {
	return &Collector{
		deploysByStatus: make(map[types.OutcomeStatus]int64),
		deployCLI:       deployCLI,
		deltaCLI:        deltaCLI,
	}
}

// IncDeployStarted records an accepted deploy operation.
func (c *Collector) IncDeployStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.deploysStarted++
	c.mu.Unlock()
}

// IncDeployCompleted records a terminal outcome.
func (c *Collector) IncDeployCompleted(status types.OutcomeStatus) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.deploysByStatus[status]++
	c.mu.Unlock()
}

// IncDeployRejected records a synchronous precondition rejection.
func (c *Collector) IncDeployRejected() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.deploysRejected++
	c.mu.Unlock()
}

// AddDiagnosticsPublished records diagnostics published to the sink.
func (c *Collector) AddDiagnosticsPublished(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.diagnosticsPublished += int64(n)
	c.mu.Unlock()
}

// IncCacheWriteFailure records a failed raw response write.
func (c *Collector) IncCacheWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.cacheWriteFailures++
	c.mu.Unlock()
}

// IncHistoryWriteFailure records a failed history append.
func (c *Collector) IncHistoryWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.historyWriteFailures++
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{DeploysByStatus: map[types.OutcomeStatus]int64{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byStatus := make(map[types.OutcomeStatus]int64, len(c.deploysByStatus))
	for k, v := range c.deploysByStatus {
		byStatus[k] = v
	}

	return Snapshot{
		DeploysStarted:       c.deploysStarted,
		DeploysByStatus:      byStatus,
		DeploysRejected:      c.deploysRejected,
		DiagnosticsPublished: c.diagnosticsPublished,
		CacheWriteFailures:   c.cacheWriteFailures,
		HistoryWriteFailures: c.historyWriteFailures,
		DeployCLI:            c.deployCLI,
		DeltaCLI:             c.deltaCLI,
	}
}
