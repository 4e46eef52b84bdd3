// Package render provides console output rendering for the foundry CLI.
//
// Color handling:
//   - --no-color disables lipgloss styling on all console output
//   - The progress TUI is unaffected by --no-color (uses its own styling)
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/justapithecus/foundry/history"
	"github.com/justapithecus/foundry/types"
)

// ConsoleNotifier writes deploy notifications to a terminal, one styled
// line per notification.
type ConsoleNotifier struct {
	out     io.Writer
	noColor bool
}

// NewConsoleNotifier creates a notifier writing to out.
func NewConsoleNotifier(out io.Writer, noColor bool) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, noColor: noColor}
}

// Notify implements runtime.Notifier.
func (n *ConsoleNotifier) Notify(severity types.Severity, message string) {
	if n.noColor {
		fmt.Fprintln(n.out, message)
		return
	}
	fmt.Fprintln(n.out, SeverityStyle(severity).Render(message))
}

// Diagnostics renders file-scoped diagnostics as a table, sorted by
// file then line for stable output.
func Diagnostics(out io.Writer, records map[string]types.DiagnosticRecord, noColor bool) error {
	if len(records) == 0 {
		return nil
	}

	sorted := make([]types.DiagnosticRecord, 0, len(records))
	for _, rec := range records {
		sorted = append(sorted, rec)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		return sorted[i].Line < sorted[j].Line
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tLINE\tCOL\tMESSAGE")
	for _, rec := range sorted {
		msg := rec.Message
		if !noColor {
			msg = ErrorStyle.Render(msg)
		}
		// Diagnostics are zero-based; print 1-based for humans.
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", rec.File, rec.Line+1, rec.Column+1, msg)
	}
	return w.Flush()
}

// History renders deploy history records as a table, most recent last.
func History(out io.Writer, records []history.DeployRecord, noColor bool) error {
	if len(records) == 0 {
		fmt.Fprintln(out, "(no deploy history)")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOP\tVARIANT\tSTATUS\tDURATION\tDIAGNOSTICS")
	for _, rec := range records {
		status := string(rec.Status)
		if !noColor {
			status = StatusStyle(rec.Status).Render(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%d\n",
			rec.Ts, rec.OpID, rec.Variant, status, rec.DurationMs, rec.DiagnosticCount)
	}
	return w.Flush()
}

// Summary renders the one-line terminal summary for an outcome.
func Summary(out io.Writer, outcome *types.Outcome, noColor bool) {
	line := summaryLine(outcome)
	if !noColor {
		line = StatusStyle(outcome.Status).Render(line)
	}
	fmt.Fprintln(out, line)
}

func summaryLine(outcome *types.Outcome) string {
	switch outcome.Status {
	case types.OutcomeComponentFailures:
		return fmt.Sprintf("%s (%d component failures)", outcome.Message, len(outcome.Failures))
	case types.OutcomeProcessFailure:
		return fmt.Sprintf("%s (exit code %d)", outcome.Message, outcome.ExitCode)
	default:
		return strings.TrimSpace(outcome.Message)
	}
}
