package runner

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-msri/internal/tracker"
	"github.com/shopspring/decimal"
)

// exactPriceScale bounds the digits kept while multiplying alphas exactly.
const exactPriceScale = 48

// Summary describes a finished run.
type Summary struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when the run started.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Steps is the number of accepted steps.
	Steps int `yaml:"steps" json:"steps"`
	// Seed is the initial smoothed value.
	Seed float64 `yaml:"seed" json:"seed"`
	// Momentum is the smoothing coefficient.
	Momentum float64 `yaml:"momentum" json:"momentum"`
	// FinalMu is the smoothed value after the last step.
	FinalMu float64 `yaml:"final_mu" json:"final_mu"`
	// FinalPrice is the floating-point product of all alphas.
	FinalPrice float64 `yaml:"final_price" json:"final_price"`
	// FinalIndicator is the indicator after the last step. It may be ±Inf.
	FinalIndicator float64 `yaml:"final_indicator" json:"-"`
	// MinIndicator is the smallest finite indicator value.
	MinIndicator float64 `yaml:"min_indicator" json:"min_indicator"`
	// MaxIndicator is the largest finite indicator value.
	MaxIndicator float64 `yaml:"max_indicator" json:"max_indicator"`
	// NonFiniteIndicators counts the steps whose indicator was ±Inf or NaN.
	NonFiniteIndicators int `yaml:"non_finite_indicators" json:"non_finite_indicators"`
	// ExactPrice is the decimal product of all alphas.
	ExactPrice string `yaml:"exact_price" json:"exact_price"`
	// PriceDrift is FinalPrice minus ExactPrice.
	PriceDrift float64 `yaml:"price_drift" json:"price_drift"`
}

// Summarize builds a Summary from the multipliers and the histories of a run.
func Summarize(id string, startedAt time.Time, seed, momentum float64, alphas, prices, history, indicators []float64) Summary {
	summary := Summary{
		ID:         id,
		Timestamp:  startedAt,
		Steps:      len(history),
		Seed:       seed,
		Momentum:   momentum,
		FinalMu:    seed,
		FinalPrice: 1,
	}

	if n := len(history); n > 0 {
		summary.FinalMu = history[n-1]
		summary.FinalPrice = prices[n-1]
		summary.FinalIndicator = indicators[n-1]
	}

	first := true
	for _, v := range indicators {
		if !tracker.IsFinite(v) {
			summary.NonFiniteIndicators++

			continue
		}

		if first || v < summary.MinIndicator {
			summary.MinIndicator = v
		}

		if first || v > summary.MaxIndicator {
			summary.MaxIndicator = v
		}

		first = false
	}

	exact, ok := exactProduct(alphas[:len(history)])
	if ok {
		summary.ExactPrice = exact.String()
		summary.PriceDrift = summary.FinalPrice - exact.InexactFloat64()
	}

	return summary
}

// exactProduct multiplies the alphas as decimals. ok is false when an alpha is
// not finite and has no decimal form.
func exactProduct(alphas []float64) (decimal.Decimal, bool) {
	product := decimal.NewFromInt(1)

	for _, alpha := range alphas {
		if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
			return decimal.Zero, false
		}

		product = product.Mul(decimal.NewFromFloat(alpha)).Round(exactPriceScale)
	}

	return product, true
}
