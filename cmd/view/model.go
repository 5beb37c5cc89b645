package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-msri/internal/config"
	"github.com/rxtech-lab/argo-msri/internal/logger"
	"github.com/rxtech-lab/argo-msri/internal/runner"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
)

// Application states.
const (
	StateScenarioSelect = iota
	StateAlphaInput
	StateTracking
)

// DefaultPlayInterval is the pause between steps while playing.
const DefaultPlayInterval = 100 * time.Millisecond

// Model is the main Bubble Tea model for the tracker viewer.
type Model struct {
	state        int
	scenarioList list.Model
	alphaInput   textinput.Model
	stepTable    table.Model
	custom       optional.Option[config.ScenarioConfig]
	scenario     config.ScenarioConfig
	tracker      *tracker.Tracker
	schedule     []float64
	next         int
	samples      []tracker.Sample
	playing      bool
	interval     time.Duration
	err          error
	width        int
	height       int
	log          *logger.Logger
}

// NewModel creates a new Model. custom is offered as the Config scenario when present.
func NewModel(custom optional.Option[config.ScenarioConfig], interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultPlayInterval
	}

	return Model{
		state:        StateScenarioSelect,
		scenarioList: NewScenarioList(custom.IsSome()),
		alphaInput:   NewAlphaInput(),
		stepTable:    NewStepTable(),
		custom:       custom,
		scenario:     config.DefaultConfig(),
		samples:      []tracker.Sample{},
		interval:     interval,
		log:          logger.NewNopLogger(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != StateAlphaInput {
				return m, tea.Quit
			}
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scenarioList.SetSize(msg.Width, msg.Height-4)
		m.stepTable.SetWidth(msg.Width)
		m.stepTable.SetHeight(msg.Height - 8)

		return m, nil

	case TickMsg:
		return m.handleTick()

	case StepErrorMsg:
		m.err = msg.Err
		m.playing = false

		return m, nil
	}

	switch m.state {
	case StateScenarioSelect:
		return m.updateScenarioSelect(msg)
	case StateAlphaInput:
		return m.updateAlphaInput(msg)
	case StateTracking:
		return m.updateTracking(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateAlphaInput:
		m.alphaInput.Blur()
		m.alphaInput.Reset()

		if m.tracker == nil {
			m.state = StateScenarioSelect
		} else {
			m.state = StateTracking
		}
	case StateTracking:
		m.reset()
		m.state = StateScenarioSelect
	}

	return m, nil
}

func (m Model) updateScenarioSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		if item, ok := m.scenarioList.SelectedItem().(listItem); ok {
			return m.startScenario(item.name)
		}
	}

	var cmd tea.Cmd
	m.scenarioList, cmd = m.scenarioList.Update(msg)

	return m, cmd
}

func (m Model) updateAlphaInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		alphas, err := ParseAlphas(m.alphaInput.Value())
		if err != nil {
			m.err = err

			return m, nil
		}

		m.err = nil

		for _, alpha := range alphas {
			if !m.step(alpha) {
				break
			}
		}

		m.alphaInput.Reset()

		return m, nil
	}

	var cmd tea.Cmd
	m.alphaInput, cmd = m.alphaInput.Update(msg)

	return m, cmd
}

func (m Model) updateTracking(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "n":
			m.playing = false
			m.stepScheduled()

			return m, nil
		case "r":
			m.playing = false
			for m.remaining() > 0 {
				if !m.stepScheduled() {
					break
				}
			}

			return m, nil
		case "p":
			if m.remaining() == 0 {
				return m, nil
			}

			m.playing = !m.playing
			if m.playing {
				return m, tick(m.interval)
			}

			return m, nil
		case "a":
			m.playing = false
			m.state = StateAlphaInput
			m.alphaInput.Focus()

			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.stepTable, cmd = m.stepTable.Update(msg)

	return m, cmd
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if !m.playing || m.state != StateTracking {
		return m, nil
	}

	if !m.stepScheduled() || m.remaining() == 0 {
		m.playing = false

		return m, nil
	}

	return m, tick(m.interval)
}

// startScenario builds a fresh tracker for the named scenario.
func (m Model) startScenario(name string) (tea.Model, tea.Cmd) {
	m.reset()

	switch name {
	case ScenarioConfig:
		m.scenario = m.custom.Unwrap()
	default:
		m.scenario = config.DefaultConfig()
	}

	policy, err := m.scenario.Policy()
	if err != nil {
		m.err = err

		return m, nil
	}

	m.tracker = tracker.NewTracker(m.scenario.Seed,
		tracker.WithMomentum(m.scenario.Momentum),
		tracker.WithSingularityPolicy(policy),
		tracker.WithLogger(m.log),
	)

	if name == ScenarioManual {
		m.state = StateAlphaInput
		m.alphaInput.Focus()

		return m, textinput.Blink
	}

	m.schedule = runner.ScheduleFromConfig(m.scenario).Alphas()
	m.state = StateTracking

	return m, nil
}

// stepScheduled feeds the next scheduled multiplier. It reports whether a step was taken.
func (m *Model) stepScheduled() bool {
	if m.remaining() == 0 {
		return false
	}

	if !m.step(m.schedule[m.next]) {
		return false
	}

	m.next++

	return true
}

func (m *Model) step(alpha float64) bool {
	sample, err := m.tracker.Step(alpha)
	if err != nil {
		m.err = err
		m.playing = false

		return false
	}

	m.samples = append(m.samples, sample)
	m.stepTable = UpdateTableRows(m.stepTable, m.samples)

	return true
}

func (m *Model) remaining() int {
	return len(m.schedule) - m.next
}

func (m *Model) reset() {
	m.tracker = nil
	m.schedule = nil
	m.next = 0
	m.samples = []tracker.Sample{}
	m.playing = false
	m.err = nil
	m.stepTable = UpdateTableRows(m.stepTable, m.samples)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateScenarioSelect:
		s.WriteString(TitleStyle.Render("Argo MSRI - Shock Resistance Tracker"))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		}

		s.WriteString(m.scenarioList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, q to quit"))

	case StateAlphaInput:
		s.WriteString(TitleStyle.Render("Enter Multipliers"))
		s.WriteString("\n\n")
		s.WriteString(m.statsLine())
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		}

		s.WriteString("Enter comma-separated multipliers (e.g., 0.5, 1.01):\n\n")
		s.WriteString(m.alphaInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Press Enter to step, Esc to go back"))

	case StateTracking:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Tracker (seed %v, momentum %v, %s)",
			m.scenario.Seed, m.scenario.Momentum, m.tracker.Policy())))
		s.WriteString("\n\n")
		s.WriteString(m.statsLine())
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		}

		if len(m.samples) == 0 {
			s.WriteString("No steps yet.\n")
		} else {
			s.WriteString(m.stepTable.View())
		}

		s.WriteString("\n")

		status := "paused"
		if m.playing {
			status = "playing"
		}

		s.WriteString(HelpStyle.Render(fmt.Sprintf("n: step | p: play/pause | r: run to end | a: add multipliers | Esc: back | q: quit | %d/%d %s",
			m.next, len(m.schedule), status)))
	}

	return s.String()
}

func (m Model) statsLine() string {
	if m.tracker == nil {
		return ""
	}

	indicator := "-"
	if last, ok := m.tracker.Last(); ok {
		indicator = fmt.Sprintf("%.6f", last.Indicator)
	}

	return StatStyle.Render(fmt.Sprintf("mu=%.6f  price=%.6f  msri=%s  steps=%d",
		m.tracker.Mu(), m.tracker.Price(), indicator, m.tracker.Len()))
}
