package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/foundry/adapter"
	"github.com/justapithecus/foundry/adapter/redis"
	"github.com/justapithecus/foundry/adapter/webhook"
	"github.com/justapithecus/foundry/cache"
	"github.com/justapithecus/foundry/cli/config"
	"github.com/justapithecus/foundry/cli/render"
	"github.com/justapithecus/foundry/cli/tui"
	"github.com/justapithecus/foundry/history"
	"github.com/justapithecus/foundry/metrics"
	"github.com/justapithecus/foundry/runtime"
	"github.com/justapithecus/foundry/types"
)

// Exit codes for the deploy command.
const (
	exitSuccess        = 0
	exitDeployFailed   = 1
	exitProcessFailure = 2
	exitValidation     = 3
)

// DeployCommand returns the deploy command, the only command that
// executes work.
func DeployCommand() *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Deploy metadata (single file, changed set, or selected files)",
		Flags: append([]cli.Flag{
			// Mode flags: exactly one must be set
			&cli.StringFlag{
				Name:  "file",
				Usage: "Deploy a single source file",
			},
			&cli.BoolFlag{
				Name:  "changed",
				Usage: "Deploy files changed since the reference revision",
			},
			&cli.StringSliceFlag{
				Name:  "selected",
				Usage: "Deploy the named files (repeatable)",
			},
			// Config overrides
			&cli.StringFlag{
				Name:  "deploy-cli",
				Usage: "Deploy tool command (overrides config)",
			},
			&cli.StringFlag{
				Name:  "delta-cli",
				Usage: "Change-detection tool command (overrides config)",
			},
			&cli.StringFlag{
				Name:  "api-version",
				Usage: "API version forwarded to the deploy tool (overrides config)",
			},
			&cli.StringFlag{
				Name:  "source-dir",
				Usage: "Metadata source directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "revision",
				Usage: "Reference revision for change detection (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "ignore-conflicts",
				Usage: "Forward the deploy tool's ignore-conflicts flag",
			},
			QuietFlag,
		}, SharedFlags()...),
		Action: deployAction,
	}
}

func deployAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}
	applyOverrides(c, cfg)

	mode, target, names, err := parseMode(c)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	noColor := c.Bool("no-color")
	quiet := cfg.Quiet || c.Bool("quiet")

	progress := runtime.ProgressFactory(runtime.NewNoopProgress)
	if tui.Enabled(quiet) {
		progress = tui.Factory(os.Stdout)
	}

	collector := metrics.NewCollector(cfg.DeployCLI, cfg.DeltaCLI)

	orch := runtime.NewOrchestrator(runtime.OrchestratorConfig{
		Options: runtime.Options{
			DeployCLI:       cfg.DeployCLI,
			DeltaCLI:        cfg.DeltaCLI,
			APIVersion:      cfg.APIVersion,
			SourceDir:       cfg.SourceDir,
			ManifestPath:    cfg.ManifestPath,
			Revision:        cfg.Revision,
			IgnoreConflicts: cfg.IgnoreConflicts,
		},
		Notifier: render.NewConsoleNotifier(os.Stderr, noColor),
		Progress: progress,
		Cache:    cache.New(cfg.CachePath),
		History:  history.NewLog(cfg.HistoryPath),
		Metrics:  collector,
	})

	// Cancel the operation on SIGINT/SIGTERM; the deploy tool is killed
	// through the job context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	var d *runtime.Deployment
	switch mode {
	case "file":
		d, err = orch.DeployFile(ctx, target)
	case "changed":
		d, err = orch.DeployChanged(ctx)
	case "selected":
		d, err = orch.DeploySelected(ctx, names)
	}
	if err != nil {
		if runtime.IsValidation(err) {
			return cli.Exit(err.Error(), exitValidation)
		}
		return cli.Exit(err.Error(), exitProcessFailure)
	}

	<-d.Done()
	result := d.Result()

	render.Summary(os.Stdout, result.Outcome, noColor)
	if err := render.Diagnostics(os.Stdout, result.Diagnostics, noColor); err != nil {
		return cli.Exit(err.Error(), exitProcessFailure)
	}

	publishEvent(ctx, cfg, d, result)

	return cli.Exit("", outcomeToExitCode(result.Outcome.Status))
}

// publishEvent sends the completion event to every configured adapter.
// Publish failures warn on stderr but never change the exit code: the
// deploy outcome already happened.
func publishEvent(ctx context.Context, cfg *config.Config, d *runtime.Deployment, result *runtime.Result) {
	adapters := buildAdapters(cfg)
	if len(adapters) == 0 {
		return
	}

	event := adapter.NewEvent(d, result)
	publishCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, a := range adapters {
		if err := a.Publish(publishCtx, event); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		_ = a.Close()
	}
}

func buildAdapters(cfg *config.Config) []adapter.Adapter {
	var adapters []adapter.Adapter
	if cfg.WebhookURL != "" {
		a, err := webhook.New(webhook.Config{URL: cfg.WebhookURL})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			adapters = append(adapters, a)
		}
	}
	if cfg.RedisURL != "" {
		a, err := redis.New(redis.Config{URL: cfg.RedisURL, Channel: cfg.RedisChannel})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			adapters = append(adapters, a)
		}
	}
	return adapters
}

// applyOverrides layers CLI flags over the loaded config. Flags always
// win when set.
func applyOverrides(c *cli.Context, cfg *config.Config) {
	if v := c.String("deploy-cli"); v != "" {
		cfg.DeployCLI = v
	}
	if v := c.String("delta-cli"); v != "" {
		cfg.DeltaCLI = v
	}
	if v := c.String("api-version"); v != "" {
		cfg.APIVersion = v
	}
	if v := c.String("source-dir"); v != "" {
		cfg.SourceDir = v
	}
	if v := c.String("revision"); v != "" {
		cfg.Revision = v
	}
	if c.Bool("ignore-conflicts") {
		cfg.IgnoreConflicts = true
	}
}

// parseMode validates that exactly one deploy mode was requested.
func parseMode(c *cli.Context) (mode, target string, names []string, err error) {
	file := c.String("file")
	changed := c.Bool("changed")
	selected := c.StringSlice("selected")

	set := 0
	if file != "" {
		set++
		mode, target = "file", file
	}
	if changed {
		set++
		mode = "changed"
	}
	if len(selected) > 0 {
		set++
		mode, names = "selected", selected
	}

	switch set {
	case 0:
		return "", "", nil, fmt.Errorf("one of --file, --changed, or --selected is required")
	case 1:
		return mode, target, names, nil
	default:
		return "", "", nil, fmt.Errorf("--file, --changed, and --selected are mutually exclusive")
	}
}

func outcomeToExitCode(status types.OutcomeStatus) int {
	switch status {
	case types.OutcomeSuccess:
		return exitSuccess
	case types.OutcomeSourceConflict, types.OutcomeComponentFailures:
		return exitDeployFailed
	default:
		return exitProcessFailure
	}
}
