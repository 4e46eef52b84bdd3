package runtime

import (
	"fmt"
	"os"
)

// ForceDirty appends a trailing blank line to path so the
// change-detection tool registers the file as changed even with no real
// edits. Selected-set deploys depend on this: the selection may contain
// files the working tree considers clean. Kept in one place so it can be
// replaced if the collaborator tool's change detection semantics change.
func ForceDirty(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open %s for append: %w", path, err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot append to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close %s: %w", path, err)
	}
	return nil
}

// deltaArgs builds the change-detection tool's argument list: compute
// the delta since the reference revision and write the manifest to the
// fixed relative output path. Success is exit code 0 alone; the tool
// emits no JSON.
func (o *Orchestrator) deltaArgs() []string {
	return []string{
		"delta",
		"--since", o.opts.Revision,
		"--out", o.opts.ManifestPath,
	}
}

// deployArgs builds the deploy tool's argument list for a source file or
// directory target, or a generated manifest.
func (o *Orchestrator) deployArgs(target string, viaManifest bool) []string {
	args := []string{"deploy", "--json", "--api-version", o.opts.APIVersion}
	if viaManifest {
		args = append(args, "--manifest", target)
	} else {
		args = append(args, "--source", target)
	}
	if o.opts.IgnoreConflicts {
		args = append(args, "--ignore-conflicts")
	}
	return args
}
