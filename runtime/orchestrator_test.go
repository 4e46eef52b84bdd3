package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/justapithecus/foundry/diag"
	"github.com/justapithecus/foundry/metrics"
	"github.com/justapithecus/foundry/types"
)

const successJSON = `{"status":0,"result":{"status":"Succeeded","success":true}}`

const failureJSON = `{"status":1,"result":{"status":"Failed","success":false,` +
	`"details":{"componentFailures":[{"fullName":"Acct","lineNumber":"10","columnNumber":"3","problemType":"Error"}]},` +
	`"files":[{"fullName":"Acct","filePath":"classes/Acct.cls","error":"Missing semicolon"}]}}`

// script is the canned behavior for one fake job invocation.
type script struct {
	stdout string
	exit   int
	err    error
	block  chan struct{} // when non-nil, Run blocks until closed
}

// fakeRunner hands out scripted jobs in invocation order and records
// every (command, args) it saw.
type fakeRunner struct {
	mu      sync.Mutex
	scripts []script
	calls   [][]string
}

func (f *fakeRunner) factory(command string, args []string) Job {
	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, append([]string{command}, args...))
	var s script
	if idx < len(f.scripts) {
		s = f.scripts[idx]
	}
	f.mu.Unlock()
	return &fakeJob{s: s}
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRunner) call(i int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type fakeJob struct {
	s script
}

func (j *fakeJob) Run(context.Context) (*JobResult, error) {
	if j.s.block != nil {
		<-j.s.block
	}
	if j.s.err != nil {
		return nil, j.s.err
	}
	var lines []string
	if j.s.stdout != "" {
		lines = strings.Split(j.s.stdout, "\n")
	}
	return &JobResult{StdoutLines: lines, ExitCode: j.s.exit}, nil
}

// countingProgress records reports and finish calls per handle.
type countingProgress struct {
	mu       sync.Mutex
	reports  int
	finishes int
}

func (p *countingProgress) factory(string) Progress { return p }

func (p *countingProgress) Report(string, int) {
	p.mu.Lock()
	p.reports++
	p.mu.Unlock()
}

func (p *countingProgress) Finish() {
	p.mu.Lock()
	p.finishes++
	p.mu.Unlock()
}

func (p *countingProgress) finishCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finishes
}

// recordingNotifier captures terminal notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	severity []types.Severity
}

func (n *recordingNotifier) Notify(sev types.Severity, msg string) {
	n.mu.Lock()
	n.messages = append(n.messages, msg)
	n.severity = append(n.severity, sev)
	n.mu.Unlock()
}

func (n *recordingNotifier) last() (types.Severity, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return "", ""
	}
	return n.severity[len(n.severity)-1], n.messages[len(n.messages)-1]
}

// capturingCache records the last persisted raw response.
type capturingCache struct {
	mu   sync.Mutex
	last []byte
}

func (c *capturingCache) Write(raw []byte) error {
	c.mu.Lock()
	c.last = append([]byte(nil), raw...)
	c.mu.Unlock()
	return nil
}

func (c *capturingCache) lastWrite() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.last)
}

type harness struct {
	orch     *Orchestrator
	runner   *fakeRunner
	progress *countingProgress
	notifier *recordingNotifier
	store    *diag.Store
	cache    *capturingCache
	metrics  *metrics.Collector
}

func newHarness(t *testing.T, opts Options, scripts ...script) *harness {
	t.Helper()
	h := &harness{
		runner:   &fakeRunner{scripts: scripts},
		progress: &countingProgress{},
		notifier: &recordingNotifier{},
		store:    diag.NewStore(),
		cache:    &capturingCache{},
		metrics:  metrics.NewCollector("mdt", "mdt-delta"),
	}
	if opts.DeployCLI == "" {
		opts.DeployCLI = "mdt"
	}
	if opts.DeltaCLI == "" {
		opts.DeltaCLI = "mdt-delta"
	}
	h.orch = NewOrchestrator(OrchestratorConfig{
		Options:  opts,
		Sink:     h.store,
		Notifier: h.notifier,
		Progress: h.progress.factory,
		Jobs:     h.runner.factory,
		Cache:    h.cache,
		Metrics:  h.metrics,
		LookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
	})
	return h
}

func seedDiagnostic(store *diag.Store, file string) {
	store.Publish(map[string]types.DiagnosticRecord{
		file: {File: file, Severity: types.SeverityError, Message: "stale"},
	})
}

func TestDeployFile_Success(t *testing.T) {
	h := newHarness(t, Options{APIVersion: "58.0"}, script{stdout: successJSON})

	d, err := h.orch.DeployFile(context.Background(), "classes/Acct.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	res := d.Result()
	if res == nil || res.Outcome.Status != types.OutcomeSuccess {
		t.Fatalf("result = %+v, want success", res)
	}
	if sev, msg := h.notifier.last(); sev != types.SeverityInfo || msg != "Deployment successful" {
		t.Errorf("notification = %q/%q", sev, msg)
	}
	if h.store.Len() != 0 {
		t.Errorf("diagnostics = %d, want 0", h.store.Len())
	}
	if h.orch.InFlight() {
		t.Error("guard should be released after terminal state")
	}
	if h.progress.finishCount() != 1 {
		t.Errorf("progress finished %d times, want exactly once", h.progress.finishCount())
	}
	if got := strings.Join(h.runner.call(0), " "); !strings.Contains(got, "--source classes/Acct.cls") {
		t.Errorf("deploy invocation = %q", got)
	}
}

func TestDeployFile_ComponentFailuresPublishDiagnostics(t *testing.T) {
	h := newHarness(t, Options{}, script{stdout: failureJSON, exit: 1})

	d, err := h.orch.DeployFile(context.Background(), "classes/Acct.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	res := d.Result()
	if res.Outcome.Status != types.OutcomeComponentFailures {
		t.Fatalf("status = %q", res.Outcome.Status)
	}
	rec, ok := h.store.Get("Acct.cls")
	if !ok {
		t.Fatalf("missing diagnostic, store = %v", h.store.All())
	}
	if rec.Line != 9 || rec.Column != 2 {
		t.Errorf("line,col = %d,%d, want 9,2", rec.Line, rec.Column)
	}
	if rec.EndColumn != types.EndColumnSentinel {
		t.Errorf("endColumn = %d, want %d", rec.EndColumn, types.EndColumnSentinel)
	}
	if sev, _ := h.notifier.last(); sev != types.SeverityError {
		t.Errorf("severity = %q, want error", sev)
	}
	if h.cache.lastWrite() != failureJSON {
		t.Error("raw response should be persisted")
	}
	if h.progress.finishCount() != 1 {
		t.Errorf("progress finished %d times", h.progress.finishCount())
	}
}

func TestDeployFile_SourceConflictVerbatimNoDiagnostics(t *testing.T) {
	conflict := `{"name":"SourceConflictError","message":"3 conflicts found"}`
	h := newHarness(t, Options{}, script{stdout: conflict, exit: 1})

	d, err := h.orch.DeployFile(context.Background(), "classes/Acct.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	if d.Result().Outcome.Status != types.OutcomeSourceConflict {
		t.Fatalf("status = %q", d.Result().Outcome.Status)
	}
	if sev, msg := h.notifier.last(); sev != types.SeverityWarning || msg != "3 conflicts found" {
		t.Errorf("notification = %q/%q, want verbatim warning", sev, msg)
	}
	if h.store.Len() != 0 {
		t.Errorf("diagnostics = %d, want 0 for conflicts", h.store.Len())
	}
}

func TestDeployFile_ParseFailureStillPersistsRaw(t *testing.T) {
	h := newHarness(t, Options{}, script{stdout: "ERROR: not json", exit: 0})

	d, err := h.orch.DeployFile(context.Background(), "classes/Acct.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	if d.Result().Outcome.Status != types.OutcomeParseFailure {
		t.Fatalf("status = %q", d.Result().Outcome.Status)
	}
	if h.cache.lastWrite() != "ERROR: not json" {
		t.Errorf("cache = %q, non-empty raw output should persist", h.cache.lastWrite())
	}
}

// A second deploy issued before the first completes is rejected
// synchronously, spawns nothing, and leaves the diagnostics store alone.
func TestDeployFile_RejectedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, Options{},
		script{stdout: successJSON, block: release},
		script{stdout: successJSON},
	)

	first, err := h.orch.DeployFile(context.Background(), "classes/A.cls")
	if err != nil {
		t.Fatalf("first deploy failed: %v", err)
	}

	seedDiagnostic(h.store, "Stale.cls")

	if _, err := h.orch.DeployFile(context.Background(), "classes/B.cls"); !errors.Is(err, ErrDeployInProgress) {
		t.Fatalf("second deploy err = %v, want ErrDeployInProgress", err)
	}
	if !IsValidation(ErrDeployInProgress) {
		t.Error("ErrDeployInProgress should classify as validation")
	}
	if h.runner.callCount() != 1 {
		t.Errorf("calls = %d, rejection must not spawn", h.runner.callCount())
	}
	if _, ok := h.store.Get("Stale.cls"); !ok {
		t.Error("rejection must leave the diagnostics store untouched")
	}

	close(release)
	<-first.Done()
	if h.orch.InFlight() {
		t.Error("guard should be released once the first deploy finishes")
	}
}

func TestDeployFile_CLINotFound(t *testing.T) {
	h := newHarness(t, Options{})
	h.orch.lookPath = func(string) (string, error) { return "", errors.New("not in PATH") }

	seedDiagnostic(h.store, "Stale.cls")

	_, err := h.orch.DeployFile(context.Background(), "classes/A.cls")
	if !errors.Is(err, ErrCLINotFound) {
		t.Fatalf("err = %v, want ErrCLINotFound", err)
	}
	if h.runner.callCount() != 0 {
		t.Error("validation failure must not spawn")
	}
	if h.orch.InFlight() {
		t.Error("guard must be net-untouched")
	}
	if h.store.Len() != 1 {
		t.Error("validation failure must not clear diagnostics")
	}
}

func TestDeployFile_ClearsPreviousDiagnosticsOnEntry(t *testing.T) {
	h := newHarness(t, Options{}, script{stdout: successJSON})
	seedDiagnostic(h.store, "Stale.cls")

	d, err := h.orch.DeployFile(context.Background(), "classes/A.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	if h.store.Len() != 0 {
		t.Errorf("diagnostics = %d, stale records should be cleared", h.store.Len())
	}
}

func TestDeployChanged_TwoStageSuccess(t *testing.T) {
	h := newHarness(t, Options{Revision: "main", ManifestPath: "out/manifest.xml"},
		script{exit: 0},
		script{stdout: successJSON},
	)

	d, err := h.orch.DeployChanged(context.Background())
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	if d.Result().Outcome.Status != types.OutcomeSuccess {
		t.Fatalf("status = %q", d.Result().Outcome.Status)
	}
	if h.runner.callCount() != 2 {
		t.Fatalf("calls = %d, want manifest then deploy", h.runner.callCount())
	}
	if got := strings.Join(h.runner.call(0), " "); !strings.Contains(got, "delta --since main") {
		t.Errorf("manifest invocation = %q", got)
	}
	if got := strings.Join(h.runner.call(1), " "); !strings.Contains(got, "--manifest out/manifest.xml") {
		t.Errorf("deploy invocation = %q", got)
	}
}

// Manifest failure is terminal: the deploy stage never starts.
func TestDeployChanged_ManifestFailureSkipsDeploy(t *testing.T) {
	h := newHarness(t, Options{Revision: "main", ManifestPath: "out/manifest.xml"},
		script{exit: 2},
		script{stdout: successJSON},
	)

	d, err := h.orch.DeployChanged(context.Background())
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	res := d.Result()
	if res.Outcome.Status != types.OutcomeManifestFailure {
		t.Fatalf("status = %q, want manifest_failure", res.Outcome.Status)
	}
	if h.runner.callCount() != 1 {
		t.Errorf("calls = %d, deploy stage must not start", h.runner.callCount())
	}
	if sev, _ := h.notifier.last(); sev != types.SeverityError {
		t.Errorf("severity = %q, want error", sev)
	}
	if h.progress.finishCount() != 1 {
		t.Errorf("progress finished %d times", h.progress.finishCount())
	}
	if h.orch.InFlight() {
		t.Error("guard should be released")
	}
}

func TestDeploySelected_EmptySelectionIsValidationFailure(t *testing.T) {
	h := newHarness(t, Options{SourceDir: t.TempDir()})
	seedDiagnostic(h.store, "Stale.cls")

	_, err := h.orch.DeploySelected(context.Background(), []string{"Ghost.cls"})
	if !errors.Is(err, ErrNoDeployableFiles) {
		t.Fatalf("err = %v, want ErrNoDeployableFiles", err)
	}
	if h.runner.callCount() != 0 {
		t.Error("empty selection must not spawn")
	}
	if h.store.Len() != 1 {
		t.Error("validation failure must not clear diagnostics")
	}
	if h.orch.InFlight() {
		t.Error("guard must be net-untouched")
	}
}

func TestDeploySelected_ForceDirtiesResolvedFiles(t *testing.T) {
	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "classes", "Acct.cls")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("class Acct {}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	h := newHarness(t, Options{SourceDir: srcDir, Revision: "main", ManifestPath: "out/manifest.xml"},
		script{exit: 0},
		script{stdout: successJSON},
	)

	d, err := h.orch.DeploySelected(context.Background(), []string{"Acct.cls"})
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	if d.Result().Outcome.Status != types.OutcomeSuccess {
		t.Fatalf("status = %q", d.Result().Outcome.Status)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "class Acct {}\n" {
		t.Errorf("content = %q, selected file should be force-dirtied", data)
	}
	if h.runner.callCount() != 2 {
		t.Errorf("calls = %d, want manifest then deploy", h.runner.callCount())
	}
}

func TestDeployFile_SpawnFailureIsProcessFailure(t *testing.T) {
	h := newHarness(t, Options{}, script{err: errors.New("exec format error")})

	d, err := h.orch.DeployFile(context.Background(), "classes/A.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	res := d.Result()
	if res.Outcome.Status != types.OutcomeProcessFailure {
		t.Fatalf("status = %q, want process_failure", res.Outcome.Status)
	}
	if h.progress.finishCount() != 1 {
		t.Errorf("progress finished %d times", h.progress.finishCount())
	}
	if h.orch.InFlight() {
		t.Error("guard should be released after spawn failure")
	}
}

func TestDeployment_ResultNilUntilDone(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, Options{}, script{stdout: successJSON, block: release})

	d, err := h.orch.DeployFile(context.Background(), "classes/A.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	if d.Result() != nil {
		t.Error("result should be nil before terminal state")
	}
	close(release)
	<-d.Done()
	if d.Result() == nil {
		t.Error("result should be set after terminal state")
	}
}

func TestDeployFile_CountsMetrics(t *testing.T) {
	h := newHarness(t, Options{},
		script{stdout: failureJSON, exit: 1},
		script{stdout: successJSON})

	d, err := h.orch.DeployFile(context.Background(), "classes/Acct.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	d, err = h.orch.DeployFile(context.Background(), "classes/Acct.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	<-d.Done()

	s := h.metrics.Snapshot()
	if s.DeploysStarted != 2 {
		t.Errorf("DeploysStarted = %d, want 2", s.DeploysStarted)
	}
	if s.DeploysByStatus[types.OutcomeComponentFailures] != 1 {
		t.Errorf("component_failures = %d, want 1", s.DeploysByStatus[types.OutcomeComponentFailures])
	}
	if s.DeploysByStatus[types.OutcomeSuccess] != 1 {
		t.Errorf("success = %d, want 1", s.DeploysByStatus[types.OutcomeSuccess])
	}
	if s.DiagnosticsPublished != 1 {
		t.Errorf("DiagnosticsPublished = %d, want 1", s.DiagnosticsPublished)
	}
}

func TestDeployFile_RejectionCountsMetric(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, Options{}, script{stdout: successJSON, block: release})

	d, err := h.orch.DeployFile(context.Background(), "classes/A.cls")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	if _, err := h.orch.DeployFile(context.Background(), "classes/B.cls"); !errors.Is(err, ErrDeployInProgress) {
		t.Fatalf("expected ErrDeployInProgress, got %v", err)
	}
	close(release)
	<-d.Done()

	s := h.metrics.Snapshot()
	if s.DeploysRejected != 1 {
		t.Errorf("DeploysRejected = %d, want 1", s.DeploysRejected)
	}
	if s.DeploysStarted != 1 {
		t.Errorf("DeploysStarted = %d, want 1", s.DeploysStarted)
	}
}
