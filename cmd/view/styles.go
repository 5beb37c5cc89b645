package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	// StatStyle for the running totals above the table.
	StatStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// FormatWithTrend formats a value with an arrow showing its move from previous.
// Nothing is appended for the first value or when either value is not finite.
func FormatWithTrend(current, previous float64, hasPrevious bool) string {
	valueStr := fmt.Sprintf("%.6f", current)

	if !hasPrevious || !tracker.IsFinite(current) || !tracker.IsFinite(previous) {
		return valueStr
	}

	if current > previous {
		return valueStr + " ▲"
	} else if current < previous {
		return valueStr + " ▼"
	}

	return valueStr
}
