package runtime

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync/atomic"
)

// JobState tracks the lifecycle of one external process invocation.
type JobState int32

// Job states.
const (
	JobNotStarted JobState = iota
	JobRunning
	JobExited
)

// JobResult is the captured output of a finished job.
type JobResult struct {
	// StdoutLines is stdout as an ordered line sequence.
	StdoutLines []string
	// StderrLines is stderr as an ordered line sequence.
	StderrLines []string
	// ExitCode is the process exit code.
	ExitCode int
}

// Stdout joins the captured stdout lines back into one text blob, the
// form the classifier consumes.
func (r *JobResult) Stdout() string {
	out := ""
	for i, line := range r.StdoutLines {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}

// Job is one external process invocation. Implementations run the
// process to completion and report captured output with the exit code.
type Job interface {
	Run(ctx context.Context) (*JobResult, error)
}

// JobFactory creates a Job for (command, args). Used for test injection.
type JobFactory func(command string, args []string) Job

// ProcessJob runs a real child process via os/exec. A job is owned by
// the stage that created it and runs at most once.
//
// No timeout is enforced: a hung external process hangs the job. That is
// a deliberate contract with the external tool, not an oversight.
type ProcessJob struct {
	command string
	args    []string
	state   atomic.Int32
}

// NewProcessJob creates a job for the given command and ordered args.
func NewProcessJob(command string, args []string) *ProcessJob {
	return &ProcessJob{command: command, args: args}
}

// State returns the job's lifecycle state.
func (j *ProcessJob) State() JobState {
	return JobState(j.state.Load())
}

// Run spawns the process and blocks until it exits, capturing stdout and
// stderr as ordered lines. A non-zero exit is not an error: it is
// reported through JobResult.ExitCode. Run returns an error only when
// the process could not be spawned or waited on.
func (j *ProcessJob) Run(ctx context.Context) (*JobResult, error) {
	if !j.state.CompareAndSwap(int32(JobNotStarted), int32(JobRunning)) {
		return nil, errors.New("job already started")
	}

	cmd := exec.CommandContext(ctx, j.command, j.args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		j.state.Store(int32(JobExited))
		return nil, fmt.Errorf("failed to start %s: %w", j.command, err)
	}

	// Drain both pipes before Wait: exec.Cmd.Wait closes the pipes, so a
	// late read would fail even with data still buffered.
	var stderrLines []string
	stderrDone := make(chan struct{})
	go func() {
		stderrLines = readLines(stderr)
		close(stderrDone)
	}()
	stdoutLines := readLines(stdout)
	<-stderrDone

	result := &JobResult{
		StdoutLines: stdoutLines,
		StderrLines: stderrLines,
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			j.state.Store(int32(JobExited))
			return nil, fmt.Errorf("wait failed for %s: %w", j.command, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	j.state.Store(int32(JobExited))
	return result, nil
}

// readLines collects r into ordered lines until EOF. Read errors
// truncate the capture; partial output is still useful for diagnostics.
func readLines(r io.Reader) []string {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
