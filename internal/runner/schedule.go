package runner

import (
	"github.com/rxtech-lab/argo-msri/internal/config"
)

// Schedule produces the ordered multipliers fed to the tracker.
type Schedule interface {
	Alphas() []float64
}

// StepChange feeds Initial for the first InitialSteps steps and Value for the
// rest, Steps multipliers in total.
type StepChange struct {
	Initial      float64
	InitialSteps int
	Value        float64
	Steps        int
}

// Alphas implements Schedule.
func (s StepChange) Alphas() []float64 {
	if s.Steps <= 0 {
		return []float64{}
	}

	alphas := make([]float64, s.Steps)
	for i := range alphas {
		if i < s.InitialSteps {
			alphas[i] = s.Initial
		} else {
			alphas[i] = s.Value
		}
	}

	return alphas
}

// Explicit feeds a fixed list of multipliers.
type Explicit struct {
	Values []float64
}

// Alphas implements Schedule.
func (e Explicit) Alphas() []float64 {
	alphas := make([]float64, len(e.Values))
	copy(alphas, e.Values)

	return alphas
}

// ScheduleFromConfig returns the explicit alpha list when the scenario has one
// and the step-change pattern otherwise.
func ScheduleFromConfig(cfg config.ScenarioConfig) Schedule {
	if cfg.Alphas.IsSome() {
		return Explicit{Values: cfg.Alphas.Unwrap()}
	}

	return StepChange{
		Initial:      cfg.InitialAlpha,
		InitialSteps: cfg.InitialSteps,
		Value:        cfg.Alpha,
		Steps:        cfg.Steps,
	}
}
