package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/foundry/types"
)

// Color palette.
var (
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Styles for console output.
var (
	// SuccessStyle for successful outcomes.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// WarningStyle for warnings and conflicts.
	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// ErrorStyle for failures.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// MutedStyle for secondary detail lines.
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// SeverityStyle returns the style for a notification severity.
func SeverityStyle(severity types.Severity) lipgloss.Style {
	switch severity {
	case types.SeverityError:
		return ErrorStyle
	case types.SeverityWarning:
		return WarningStyle
	default:
		return SuccessStyle
	}
}

// StatusStyle returns the style for an outcome status.
func StatusStyle(status types.OutcomeStatus) lipgloss.Style {
	switch status {
	case types.OutcomeSuccess:
		return SuccessStyle
	case types.OutcomeSourceConflict:
		return WarningStyle
	default:
		return ErrorStyle
	}
}
