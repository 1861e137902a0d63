// Package render draws reconciled execution traces as styled text.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vinayprograms/runtrace/internal/trace"
)

var (
	// Structural / metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - node types, timings

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")) // White

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	// Grouping
	parallelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("13")) // Magenta - parallel groups

	branchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")) // Magenta dim - branches

	roundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")) // Cyan - loop/iteration rounds

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")) // Blue - agent log

	// Outcomes
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")) // Red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow

	seqStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(5).
			Align(lipgloss.Right)

	blockHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Italic(true)

	divider = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(strings.Repeat("━", 60))
)

// statusStyle returns the style and glyph for a record status.
func statusStyle(status trace.Status) (lipgloss.Style, string) {
	switch status {
	case trace.StatusSucceeded:
		return successStyle, "✓"
	case trace.StatusFailed, trace.StatusException:
		return errorStyle, "✗"
	case trace.StatusRetry:
		return warnStyle, "↻"
	case trace.StatusStopped:
		return warnStyle, "■"
	default:
		return warnStyle, "…"
	}
}
