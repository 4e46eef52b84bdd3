// Package tui provides the Bubble Tea progress surface for foundry deploy.
//
// The progress UI is best-effort: when stdout is not a TTY or --quiet is
// set, the CLI falls back to the no-op backend and deploys run silently.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Styles for the progress view.
var (
	// TitleStyle for the operation title line.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// StageStyle for the current stage message.
	StageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// HelpStyle for the quit hint.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)
