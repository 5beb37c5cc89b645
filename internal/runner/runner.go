// Package runner drives a tracker through a multiplier schedule and collects
// the resulting series for storage and plotting.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-msri/internal/config"
	"github.com/rxtech-lab/argo-msri/internal/logger"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
	"go.uber.org/zap"
)

// Lifecycle callback types for a run.
// Callbacks returning an error abort the run.

// OnRunStartCallback is called once the run ID and schedule are known.
type OnRunStartCallback func(runID string, totalSteps int) error

// OnStepCallback is called after every accepted step. current is 1-based.
type OnStepCallback func(current int, total int, sample tracker.Sample) error

// OnRunEndCallback is called when the run ends, successful or not (always called via defer).
type OnRunEndCallback func(runID string, err error)

// LifecycleCallbacks holds all lifecycle callback functions for a run.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart *OnRunStartCallback
	OnStep     *OnStepCallback
	OnRunEnd   *OnRunEndCallback
}

// Sink receives every accepted step of a run.
type Sink interface {
	Record(runID string, sample tracker.Sample) error
}

// Result holds everything a run produced.
type Result struct {
	RunID            string
	StartedAt        time.Time
	Config           config.ScenarioConfig
	Alphas           []float64
	Prices           []float64
	History          []float64
	IndicatorHistory []float64
	Summary          Summary
}

// Samples returns the run as one Sample per step.
func (r *Result) Samples() []tracker.Sample {
	samples := make([]tracker.Sample, len(r.History))
	for i := range r.History {
		samples[i] = tracker.Sample{
			Step:      i,
			Alpha:     r.Alphas[i],
			Price:     r.Prices[i],
			Mu:        r.History[i],
			Indicator: r.IndicatorHistory[i],
		}
	}

	return samples
}

// Steps returns the step indices 0..n-1, the x axis of the tracker chart.
func (r *Result) Steps() []int {
	steps := make([]int, len(r.History))
	for i := range steps {
		steps[i] = i
	}

	return steps
}

// Runner executes one scenario.
type Runner struct {
	config   config.ScenarioConfig
	schedule Schedule
	log      *logger.Logger
	sink     Sink
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink records every step into sink.
func WithSink(sink Sink) Option {
	return func(r *Runner) {
		r.sink = sink
	}
}

// WithSchedule overrides the schedule derived from the scenario.
func WithSchedule(schedule Schedule) Option {
	return func(r *Runner) {
		r.schedule = schedule
	}
}

// NewRunner creates a runner for cfg. A nil logger discards output.
func NewRunner(cfg config.ScenarioConfig, log *logger.Logger, opts ...Option) *Runner {
	if log == nil {
		log = logger.NewNopLogger()
	}

	r := &Runner{
		config:   cfg,
		schedule: ScheduleFromConfig(cfg),
		log:      log,
		sink:     nil,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run feeds the schedule to a fresh tracker, one multiplier at a time.
// The context is checked between steps.
func (r *Runner) Run(ctx context.Context, callbacks LifecycleCallbacks) (result *Result, err error) {
	runID := uuid.New().String()
	startedAt := time.Now()

	if callbacks.OnRunEnd != nil {
		defer func() {
			(*callbacks.OnRunEnd)(runID, err)
		}()
	}

	policy, err := r.config.Policy()
	if err != nil {
		return nil, err
	}

	alphas := r.schedule.Alphas()
	total := len(alphas)

	r.log.Info("Run started",
		zap.String("run_id", runID),
		zap.Int("steps", total),
		zap.Float64("seed", r.config.Seed),
		zap.Float64("momentum", r.config.Momentum),
		zap.String("singularity_policy", string(policy)),
	)

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, total); err != nil {
			return nil, fmt.Errorf("run start callback failed: %w", err)
		}
	}

	tr := tracker.NewTracker(r.config.Seed,
		tracker.WithMomentum(r.config.Momentum),
		tracker.WithSingularityPolicy(policy),
		tracker.WithLogger(r.log),
	)

	prices := make([]float64, 0, total)

	for i, alpha := range alphas {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrapf(errors.ErrCodeCancelled, ctxErr, "run cancelled after %d of %d steps", i, total)
		}

		sample, err := tr.Step(alpha)
		if err != nil {
			r.log.Error("Step failed", zap.String("run_id", runID), zap.Int("step", i), zap.Error(err))

			return nil, fmt.Errorf("step %d failed: %w", i, err)
		}

		prices = append(prices, sample.Price)

		if r.sink != nil {
			if err := r.sink.Record(runID, sample); err != nil {
				return nil, fmt.Errorf("failed to record step %d: %w", i, err)
			}
		}

		if callbacks.OnStep != nil {
			if err := (*callbacks.OnStep)(i+1, total, sample); err != nil {
				return nil, fmt.Errorf("step callback failed at step %d: %w", i, err)
			}
		}
	}

	history := tr.History()
	indicators := tr.IndicatorHistory()

	result = &Result{
		RunID:            runID,
		StartedAt:        startedAt,
		Config:           r.config,
		Alphas:           alphas,
		Prices:           prices,
		History:          history,
		IndicatorHistory: indicators,
		Summary:          Summarize(runID, startedAt, r.config.Seed, tr.Momentum(), alphas, prices, history, indicators),
	}

	r.log.Info("Run finished",
		zap.String("run_id", runID),
		zap.Float64s("history", history),
		zap.Float64("final_mu", result.Summary.FinalMu),
		zap.Float64("final_price", result.Summary.FinalPrice),
		zap.Int("non_finite_indicators", result.Summary.NonFiniteIndicators),
	)

	return result, nil
}
