// Package cmd provides CLI commands for the foundry binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags across foundry commands.
var (
	// ConfigFlag points at the YAML config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to foundry.yaml config file",
		Value:   "foundry.yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// QuietFlag suppresses the progress UI.
	QuietFlag = &cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "Suppress the progress UI",
	}
)

// SharedFlags returns the flags common to all commands.
func SharedFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		NoColorFlag,
	}
}
