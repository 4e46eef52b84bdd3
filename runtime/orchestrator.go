package runtime

import (
	"context"
	"crypto/rand"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/justapithecus/foundry/diag"
	"github.com/justapithecus/foundry/history"
	"github.com/justapithecus/foundry/log"
	"github.com/justapithecus/foundry/metrics"
	"github.com/justapithecus/foundry/types"
)

// Options configures the external tools and paths of an Orchestrator.
type Options struct {
	// DeployCLI is the deploy tool command name or path.
	DeployCLI string
	// DeltaCLI is the change-detection tool command name or path.
	DeltaCLI string
	// APIVersion is passed to the deploy tool.
	APIVersion string
	// SourceDir is the metadata source tree; selected-set resolution
	// indexes its files.
	SourceDir string
	// ManifestPath is the fixed relative path the delta tool writes the
	// manifest to, and the deploy target of two-stage deploys.
	ManifestPath string
	// Revision is the reference revision deltas are computed against.
	Revision string
	// IgnoreConflicts forwards the tool's ignore-conflicts flag.
	IgnoreConflicts bool
}

// ResponseWriter persists the last raw deploy response.
type ResponseWriter interface {
	Write(raw []byte) error
}

// Recorder appends a finished operation to the deploy history.
type Recorder interface {
	Record(rec history.DeployRecord) error
}

// OrchestratorConfig wires an Orchestrator's collaborators. Nil optional
// fields select inert defaults.
type OrchestratorConfig struct {
	Options Options
	// Sink receives diagnostics. Defaults to a fresh diag.Store.
	Sink diag.Sink
	// Notifier receives terminal notifications. Defaults to NoopNotifier.
	Notifier Notifier
	// Progress creates per-operation progress handles. Defaults to noop.
	Progress ProgressFactory
	// Jobs overrides process creation (for testing). Defaults to
	// NewProcessJob.
	Jobs JobFactory
	// Cache persists raw responses. Nil disables persistence.
	Cache ResponseWriter
	// History records finished operations. Nil disables history.
	History Recorder
	// Metrics counts operations and failures. Nil disables counting.
	Metrics *metrics.Collector
	// LookPath overrides tool resolution (for testing). Defaults to
	// exec.LookPath.
	LookPath func(name string) (string, error)
}

// Orchestrator owns the single-flight guard and drives deploy pipelines.
// At most one deployment is in flight at any time; a second request is
// rejected synchronously without side effects.
type Orchestrator struct {
	opts     Options
	guard    *Flight
	sink     diag.Sink
	notifier Notifier
	progress ProgressFactory
	jobs     JobFactory
	cache    ResponseWriter
	history  Recorder
	metrics  *metrics.Collector
	lookPath func(name string) (string, error)
}

// NewOrchestrator creates an orchestrator from cfg, substituting inert
// defaults for absent collaborators.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		opts:     cfg.Options,
		guard:    NewFlight(),
		sink:     cfg.Sink,
		notifier: cfg.Notifier,
		progress: cfg.Progress,
		jobs:     cfg.Jobs,
		cache:    cfg.Cache,
		history:  cfg.History,
		metrics:  cfg.Metrics,
		lookPath: cfg.LookPath,
	}
	if o.sink == nil {
		o.sink = diag.NewStore()
	}
	if o.notifier == nil {
		o.notifier = NoopNotifier{}
	}
	if o.progress == nil {
		o.progress = NewNoopProgress
	}
	if o.jobs == nil {
		o.jobs = func(command string, args []string) Job {
			return NewProcessJob(command, args)
		}
	}
	if o.lookPath == nil {
		o.lookPath = exec.LookPath
	}
	return o
}

// InFlight reports whether a deployment currently holds the guard.
func (o *Orchestrator) InFlight() bool {
	return o.guard.InFlight()
}

// Deployment is the handle for one in-flight deploy operation.
type Deployment struct {
	// Variant is the deploy variant.
	Variant types.DeployVariant

	opID   string
	done   chan struct{}
	result *Result
}

// OpID returns the operation identifier.
func (d *Deployment) OpID() string {
	return d.opID
}

// Done is closed when the operation reaches a terminal state.
func (d *Deployment) Done() <-chan struct{} {
	return d.done
}

// Result returns the terminal result. Nil until Done is closed.
func (d *Deployment) Result() *Result {
	select {
	case <-d.done:
		return d.result
	default:
		return nil
	}
}

// Result is the terminal state of one deploy operation.
type Result struct {
	// Outcome is the classified outcome.
	Outcome *types.Outcome
	// Diagnostics holds the records published for component failures,
	// keyed by file name. Nil for every other outcome.
	Diagnostics map[string]types.DiagnosticRecord
	// Duration is the total operation duration.
	Duration time.Duration
}

// operation carries per-invocation state through the stage pipeline.
// Created once per invocation, owned by it, discarded when the pipeline
// completes.
type operation struct {
	outcome *types.Outcome
	raw     string
}

// DeployFile deploys a single source file. Preconditions are checked
// synchronously; on success the returned handle's pipeline runs on its
// own operation goroutine.
func (o *Orchestrator) DeployFile(ctx context.Context, path string) (*Deployment, error) {
	if !o.guard.TryAcquire() {
		o.metrics.IncDeployRejected()
		return nil, ErrDeployInProgress
	}
	deployCLI, err := o.resolveTool(o.opts.DeployCLI)
	if err != nil {
		o.guard.Release()
		o.metrics.IncDeployRejected()
		return nil, err
	}

	d := o.begin(types.VariantSingleFile)
	op := &operation{}
	stages := []Stage{
		o.deployStage(deployCLI, path, false, op),
	}
	go o.run(ctx, d, op, fmt.Sprintf("Deploying %s", path), stages)
	return d, nil
}

// DeployChanged deploys the set of files changed since the reference
// revision: a manifest-prep invocation of the delta tool, then a deploy
// of the generated manifest. The deploy stage never starts when the
// manifest stage fails.
func (o *Orchestrator) DeployChanged(ctx context.Context) (*Deployment, error) {
	if !o.guard.TryAcquire() {
		o.metrics.IncDeployRejected()
		return nil, ErrDeployInProgress
	}
	deployCLI, deltaCLI, err := o.resolveTools()
	if err != nil {
		o.guard.Release()
		o.metrics.IncDeployRejected()
		return nil, err
	}

	d := o.begin(types.VariantChangedSet)
	op := &operation{}
	stages := []Stage{
		o.manifestStage(deltaCLI, op),
		o.deployStage(deployCLI, o.opts.ManifestPath, true, op),
	}
	go o.run(ctx, d, op, "Deploying changed files", stages)
	return d, nil
}

// DeploySelected deploys the files named in an externally supplied
// selection list, resolved through a file-name index of the source
// tree. Zero resolvable files is a validation rejection: nothing is
// spawned and no state changes. Every resolved file is force-dirtied
// before the delta tool runs.
func (o *Orchestrator) DeploySelected(ctx context.Context, names []string) (*Deployment, error) {
	if !o.guard.TryAcquire() {
		o.metrics.IncDeployRejected()
		return nil, ErrDeployInProgress
	}
	deployCLI, deltaCLI, err := o.resolveTools()
	if err != nil {
		o.guard.Release()
		o.metrics.IncDeployRejected()
		return nil, err
	}

	index, err := BuildFileIndex(o.opts.SourceDir)
	if err != nil {
		o.guard.Release()
		o.metrics.IncDeployRejected()
		return nil, fmt.Errorf("cannot index source directory %s: %w", o.opts.SourceDir, err)
	}
	files := ResolveSelection(index, names)
	if len(files) == 0 {
		o.guard.Release()
		o.metrics.IncDeployRejected()
		return nil, ErrNoDeployableFiles
	}

	d := o.begin(types.VariantSelectedSet)
	op := &operation{}
	stages := []Stage{
		o.forceDirtyStage(files, op),
		o.manifestStage(deltaCLI, op),
		o.deployStage(deployCLI, o.opts.ManifestPath, true, op),
	}
	go o.run(ctx, d, op, fmt.Sprintf("Deploying %d selected file(s)", len(files)), stages)
	return d, nil
}

// begin clears the diagnostics store and builds the operation handle.
// Called only after every precondition has passed.
func (o *Orchestrator) begin(variant types.DeployVariant) *Deployment {
	o.sink.Clear()
	o.metrics.IncDeployStarted()
	return &Deployment{
		Variant: variant,
		opID:    newOpID(),
		done:    make(chan struct{}),
	}
}

// resolveTool resolves one external tool, mapping lookup failure to the
// validation sentinel.
func (o *Orchestrator) resolveTool(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: no tool configured", ErrCLINotFound)
	}
	path, err := o.lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCLINotFound, name)
	}
	return path, nil
}

// resolveTools resolves the deploy and delta tools for two-stage deploys.
func (o *Orchestrator) resolveTools() (deployCLI, deltaCLI string, err error) {
	deployCLI, err = o.resolveTool(o.opts.DeployCLI)
	if err != nil {
		return "", "", err
	}
	deltaCLI, err = o.resolveTool(o.opts.DeltaCLI)
	if err != nil {
		return "", "", err
	}
	return deployCLI, deltaCLI, nil
}

// run drives one operation on its own goroutine: the pipeline, then
// terminal handling. The deferred block is the only place the progress
// handle finishes, the guard releases, and Done closes, so every branch
// terminates each exactly once.
func (o *Orchestrator) run(ctx context.Context, d *Deployment, op *operation, title string, stages []Stage) {
	start := time.Now()
	logger := log.NewLogger(d.opID, d.Variant)
	progress := newProgressHandle(o.progress(title))

	defer func() {
		progress.Finish()
		o.guard.Release()
		close(d.done)
	}()

	logger.Info("starting deployment", map[string]any{
		"stages": len(stages),
	})

	if err := runPipeline(ctx, progress, stages); err != nil && op.outcome == nil {
		// Stage halted without recording a terminal outcome: the
		// process could not be spawned or waited on.
		op.outcome = &types.Outcome{
			Status:   types.OutcomeProcessFailure,
			Message:  err.Error(),
			ExitCode: -1,
		}
	}
	if op.outcome == nil {
		op.outcome = &types.Outcome{
			Status:  types.OutcomeProcessFailure,
			Message: "deployment finished without a classified outcome",
		}
	}

	d.result = o.finalize(d, op, start, logger)
}

// finalize persists, publishes, notifies, and records the terminal state.
func (o *Orchestrator) finalize(d *Deployment, op *operation, start time.Time, logger *log.Logger) *Result {
	outcome := op.outcome

	// Raw output is persisted on every terminal path that produced any,
	// parse failures included.
	if op.raw != "" && o.cache != nil {
		if err := o.cache.Write([]byte(op.raw)); err != nil {
			o.metrics.IncCacheWriteFailure()
			logger.Warn("cannot persist deploy response", map[string]any{
				"error": err.Error(),
			})
		}
	}

	var diags map[string]types.DiagnosticRecord
	if outcome.Status == types.OutcomeComponentFailures {
		diags = diag.ToDiagnostics(outcome.Failures)
		o.sink.Publish(diags)
		o.metrics.AddDiagnosticsPublished(len(diags))
	}
	o.metrics.IncDeployCompleted(outcome.Status)

	o.notify(outcome, len(diags))

	if o.history != nil {
		rec := history.NewRecord(d.opID, d.Variant, outcome.Status, outcome.Message, outcome.ExitCode, time.Since(start), len(diags))
		if err := o.history.Record(rec); err != nil {
			o.metrics.IncHistoryWriteFailure()
			logger.Warn("cannot record deploy history", map[string]any{
				"error": err.Error(),
			})
		}
	}

	logger.Info("deployment finished", map[string]any{
		"status":      string(outcome.Status),
		"diagnostics": len(diags),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &Result{
		Outcome:     outcome,
		Diagnostics: diags,
		Duration:    time.Since(start),
	}
}

// notify maps an outcome to its user-facing notification severity. A
// source conflict reports the tool's message verbatim.
func (o *Orchestrator) notify(outcome *types.Outcome, diagnostics int) {
	switch outcome.Status {
	case types.OutcomeSuccess:
		o.notifier.Notify(types.SeverityInfo, outcome.Message)
	case types.OutcomeSourceConflict:
		o.notifier.Notify(types.SeverityWarning, outcome.Message)
	case types.OutcomeComponentFailures:
		o.notifier.Notify(types.SeverityError, fmt.Sprintf("%s (%d diagnostic(s) published)", outcome.Message, diagnostics))
	default:
		o.notifier.Notify(types.SeverityError, outcome.Message)
	}
}

// deployStage runs the deploy tool against target and classifies its
// stdout. The job is constructed only when the stage runs, which in
// two-stage pipelines is after the manifest stage succeeded.
func (o *Orchestrator) deployStage(deployCLI, target string, viaManifest bool, op *operation) Stage {
	return Stage{
		Name: "deploy",
		Run: func(ctx context.Context) error {
			job := o.jobs(deployCLI, o.deployArgs(target, viaManifest))
			res, err := job.Run(ctx)
			if err != nil {
				op.outcome = &types.Outcome{
					Status:   types.OutcomeProcessFailure,
					Message:  fmt.Sprintf("deploy command failed: %v", err),
					ExitCode: -1,
				}
				return errStageFailed
			}
			op.raw = strings.Join(res.StdoutLines, "\n")
			op.outcome = Classify(op.raw, res.ExitCode)
			return nil
		},
	}
}

// manifestStage runs the change-detection tool. Success is exit code 0
// alone; the manifest lands at the fixed relative output path.
func (o *Orchestrator) manifestStage(deltaCLI string, op *operation) Stage {
	return Stage{
		Name: "manifest",
		Run: func(ctx context.Context) error {
			job := o.jobs(deltaCLI, o.deltaArgs())
			res, err := job.Run(ctx)
			if err != nil {
				op.outcome = &types.Outcome{
					Status:   types.OutcomeManifestFailure,
					Message:  fmt.Sprintf("change detection failed: %v", err),
					ExitCode: -1,
				}
				return errStageFailed
			}
			if res.ExitCode != 0 {
				op.outcome = &types.Outcome{
					Status:   types.OutcomeManifestFailure,
					Message:  fmt.Sprintf("change detection exited with code %d", res.ExitCode),
					ExitCode: res.ExitCode,
				}
				return errStageFailed
			}
			return nil
		},
	}
}

// forceDirtyStage appends a trailing blank line to every resolved file
// so the delta tool registers them as changed.
func (o *Orchestrator) forceDirtyStage(files []string, op *operation) Stage {
	return Stage{
		Name: "prepare",
		Run: func(ctx context.Context) error {
			for _, file := range files {
				if err := ForceDirty(file); err != nil {
					op.outcome = &types.Outcome{
						Status:  types.OutcomeManifestFailure,
						Message: fmt.Sprintf("cannot prepare selection: %v", err),
					}
					return errStageFailed
				}
			}
			return nil
		},
	}
}

// newOpID generates a short unique operation identifier.
func newOpID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%d-%x", time.Now().Unix(), b)
}
