package cmd

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/foundry/cli/config"
	"github.com/justapithecus/foundry/cli/render"
	"github.com/justapithecus/foundry/history"
)

// HistoryCommand returns the history command. Read-only: it never
// touches the single-flight guard or spawns tools.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent deploy operations",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of records to show",
				Value:   20,
			},
		}, SharedFlags()...),
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	records, err := history.NewLog(cfg.HistoryPath).Tail(c.Int("limit"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return render.History(os.Stdout, records, c.Bool("no-color"))
}
