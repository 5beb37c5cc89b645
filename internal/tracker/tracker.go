package tracker

import (
	"github.com/rxtech-lab/argo-msri/internal/logger"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
	"go.uber.org/zap"
)

// DefaultMomentum is the smoothing coefficient used unless WithMomentum overrides it.
const DefaultMomentum = 0.9

// Sample is the outcome of a single Step.
type Sample struct {
	// Step is the zero-based index of the step.
	Step int `json:"step" yaml:"step"`
	// Alpha is the multiplier fed into the step.
	Alpha float64 `json:"alpha" yaml:"alpha"`
	// Price is the running product of all multipliers up to and including this step.
	Price float64 `json:"price" yaml:"price"`
	// Mu is the smoothed value after the step.
	Mu float64 `json:"mu" yaml:"mu"`
	// Indicator is ShockResistance(Mu). It may be ±Inf under SingularityPropagate.
	Indicator float64 `json:"indicator" yaml:"indicator"`
}

// OnStepCallback is invoked after every accepted step.
type OnStepCallback func(sample Sample)

// Tracker keeps an exponential moving average of a multiplier stream and the
// shock resistance indicator derived from it.
type Tracker struct {
	mu               float64
	momentum         float64
	price            float64
	history          []float64
	indicatorHistory []float64
	lastAlpha        float64
	policy           SingularityPolicy
	log              *logger.Logger
	onStep           OnStepCallback
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMomentum overrides the smoothing coefficient. The value is not validated.
func WithMomentum(momentum float64) Option {
	return func(t *Tracker) {
		t.momentum = momentum
	}
}

// WithSingularityPolicy selects how a step landing on mu = ±1 is handled.
func WithSingularityPolicy(policy SingularityPolicy) Option {
	return func(t *Tracker) {
		t.policy = policy
	}
}

// WithLogger sets the logger that receives the per-step price line.
func WithLogger(log *logger.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithOnStep registers a callback that observes every accepted step.
func WithOnStep(cb OnStepCallback) Option {
	return func(t *Tracker) {
		t.onStep = cb
	}
}

// NewTracker creates a tracker seeded with mu. The price starts at 1 and both
// histories start empty. The seed is not validated.
func NewTracker(seed float64, opts ...Option) *Tracker {
	t := &Tracker{
		mu:               seed,
		momentum:         DefaultMomentum,
		price:            1,
		history:          []float64{},
		indicatorHistory: []float64{},
		policy:           SingularityPropagate,
		log:              logger.NewNopLogger(),
		onStep:           nil,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Step applies one multiplier: the price is multiplied by alpha, mu moves a
// (1-momentum) fraction of the way towards alpha, and the new mu and its
// indicator are appended to the histories.
//
// Under SingularityReject a step whose new mu is exactly ±1 returns a
// *errors.SingularityError and changes nothing.
func (t *Tracker) Step(alpha float64) (Sample, error) {
	step := len(t.history)
	price := t.price * alpha
	mu := (1-t.momentum)*alpha + t.momentum*t.mu

	if t.policy == SingularityReject && IsSingular(mu) {
		t.log.Warn("Rejected singular step",
			zap.Int("step", step),
			zap.Float64("alpha", alpha),
			zap.Float64("mu", mu),
		)

		return Sample{}, errors.NewSingularityError(step, mu)
	}

	t.price = price
	t.log.Info("price",
		zap.Int("step", step),
		zap.Float64("price", t.price),
	)

	t.mu = mu
	t.lastAlpha = alpha
	t.history = append(t.history, t.mu)

	indicator := ShockResistance(t.mu)
	t.indicatorHistory = append(t.indicatorHistory, indicator)

	sample := Sample{
		Step:      step,
		Alpha:     alpha,
		Price:     t.price,
		Mu:        t.mu,
		Indicator: indicator,
	}

	if t.onStep != nil {
		t.onStep(sample)
	}

	return sample, nil
}

// Mu returns the current smoothed value.
func (t *Tracker) Mu() float64 { return t.mu }

// Momentum returns the smoothing coefficient.
func (t *Tracker) Momentum() float64 { return t.momentum }

// Price returns the product of every multiplier applied so far.
func (t *Tracker) Price() float64 { return t.price }

// Policy returns the singularity policy in effect.
func (t *Tracker) Policy() SingularityPolicy { return t.policy }

// Len returns the number of accepted steps.
func (t *Tracker) Len() int { return len(t.history) }

// History returns a copy of the smoothed values, one per step.
func (t *Tracker) History() []float64 {
	out := make([]float64, len(t.history))
	copy(out, t.history)

	return out
}

// IndicatorHistory returns a copy of the indicator values, index-aligned with History.
func (t *Tracker) IndicatorHistory() []float64 {
	out := make([]float64, len(t.indicatorHistory))
	copy(out, t.indicatorHistory)

	return out
}

// Last returns the most recent step. ok is false before the first step.
func (t *Tracker) Last() (sample Sample, ok bool) {
	n := len(t.history)
	if n == 0 {
		return Sample{}, false
	}

	return Sample{
		Step:      n - 1,
		Alpha:     t.lastAlpha,
		Price:     t.price,
		Mu:        t.history[n-1],
		Indicator: t.indicatorHistory[n-1],
	}, true
}
