package runtime

import (
	"context"
	"testing"
)

func TestProcessJob_CapturesStdoutLines(t *testing.T) {
	job := NewProcessJob("sh", []string{"-c", `printf 'one\ntwo\n'`})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exitCode = %d, want 0", res.ExitCode)
	}
	if len(res.StdoutLines) != 2 || res.StdoutLines[0] != "one" || res.StdoutLines[1] != "two" {
		t.Errorf("stdout = %v", res.StdoutLines)
	}
	if res.Stdout() != "one\ntwo" {
		t.Errorf("joined stdout = %q", res.Stdout())
	}
}

func TestProcessJob_CapturesStderrAndExitCode(t *testing.T) {
	job := NewProcessJob("sh", []string{"-c", `echo oops >&2; exit 3`})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exitCode = %d, want 3", res.ExitCode)
	}
	if len(res.StderrLines) != 1 || res.StderrLines[0] != "oops" {
		t.Errorf("stderr = %v", res.StderrLines)
	}
}

func TestProcessJob_StateTransitions(t *testing.T) {
	job := NewProcessJob("sh", []string{"-c", "true"})
	if job.State() != JobNotStarted {
		t.Errorf("state = %v, want not started", job.State())
	}

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if job.State() != JobExited {
		t.Errorf("state = %v, want exited", job.State())
	}
}

func TestProcessJob_RunsAtMostOnce(t *testing.T) {
	job := NewProcessJob("sh", []string{"-c", "true"})
	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := job.Run(context.Background()); err == nil {
		t.Error("second run should fail")
	}
}

func TestProcessJob_SpawnFailure(t *testing.T) {
	job := NewProcessJob("definitely-not-a-real-binary-12345", nil)
	if _, err := job.Run(context.Background()); err == nil {
		t.Error("expected spawn error")
	}
	if job.State() != JobExited {
		t.Errorf("state = %v, want exited after spawn failure", job.State())
	}
}
