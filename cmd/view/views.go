package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
)

// Scenario names shown in the selection list.
const (
	ScenarioReference = "Reference"
	ScenarioConfig    = "Config"
	ScenarioManual    = "Manual"
)

// listItem implements list.Item interface for the scenario list.
type listItem struct {
	name        string
	description string
}

func (i listItem) Title() string       { return i.name }
func (i listItem) Description() string { return i.description }
func (i listItem) FilterValue() string { return i.name }

// NewScenarioList creates the scenario selection list. The config entry is
// only offered when a scenario file was loaded.
func NewScenarioList(withConfig bool) list.Model {
	items := []list.Item{
		listItem{name: ScenarioReference, description: "Seed 1, one step at 0.5, then 99 steps at 1.01"},
	}

	if withConfig {
		items = append(items, listItem{name: ScenarioConfig, description: "Scenario loaded from --config"})
	}

	items = append(items, listItem{name: ScenarioManual, description: "Type each multiplier yourself"})

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Scenario"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// NewAlphaInput creates the text input for manual multipliers.
func NewAlphaInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "0.5, 1.01, 1.01"
	ti.CharLimit = 200
	ti.Width = 50
	ti.Prompt = "> "

	return ti
}

// ParseAlphas parses comma-separated multipliers. Empty entries are skipped.
func ParseAlphas(input string) ([]float64, error) {
	parts := strings.Split(input, ",")
	alphas := make([]float64, 0, len(parts))

	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}

		alpha, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid multiplier %q", s)
		}

		if !tracker.IsFinite(alpha) {
			return nil, fmt.Errorf("multiplier %q must be finite", s)
		}

		alphas = append(alphas, alpha)
	}

	return alphas, nil
}

// NewStepTable creates the table listing tracker steps.
func NewStepTable() table.Model {
	columns := []table.Column{
		{Title: "Step", Width: 6},
		{Title: "Alpha", Width: 12},
		{Title: "Price", Width: 14},
		{Title: "Mu", Width: 16},
		{Title: "MSRI", Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateTableRows fills the table with every sample and moves to the last row.
func UpdateTableRows(t table.Model, samples []tracker.Sample) table.Model {
	rows := make([]table.Row, 0, len(samples))

	for i, sample := range samples {
		var prev tracker.Sample
		if i > 0 {
			prev = samples[i-1]
		}

		rows = append(rows, table.Row{
			strconv.Itoa(sample.Step),
			fmt.Sprintf("%.4f", sample.Alpha),
			fmt.Sprintf("%.6f", sample.Price),
			FormatWithTrend(sample.Mu, prev.Mu, i > 0),
			FormatWithTrend(sample.Indicator, prev.Indicator, i > 0),
		})
	}

	t.SetRows(rows)
	t.GotoBottom()

	return t
}
