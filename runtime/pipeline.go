package runtime

import "context"

// Stage is one step of a deploy pipeline: a named function that advances
// the operation or halts it. A stage that reaches a terminal state
// records the outcome on the operation and returns a non-nil error; the
// driver never starts a later stage after a failed one. A two-stage
// deploy therefore constructs its deploy job only once the manifest
// stage has returned nil, by sequence rather than by synchronization.
type Stage struct {
	// Name labels the stage in progress reports and logs.
	Name string
	// Run advances the operation. A non-nil error halts the pipeline.
	Run func(ctx context.Context) error
}

// runPipeline drives the stages in order, reporting per-stage progress,
// and stops at the first failing stage.
func runPipeline(ctx context.Context, progress Progress, stages []Stage) error {
	for i, stage := range stages {
		progress.Report(stage.Name, i*100/len(stages))
		if err := stage.Run(ctx); err != nil {
			return err
		}
	}
	progress.Report("done", 100)
	return nil
}
