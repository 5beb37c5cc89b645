package mocks

import (
	"math"
	"math/rand"
)

// AlphaGenerator generates realistic multiplier sequences for testing and benchmarking.
type AlphaGenerator struct {
	rng *rand.Rand
}

// NewAlphaGenerator creates a new AlphaGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewAlphaGenerator(seed int64) *AlphaGenerator {
	return &AlphaGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how multipliers are generated.
type GeneratorConfig struct {
	// Count is the number of multipliers to generate
	Count int
	// Volatility is the standard deviation of each multiplier around 1 (0.01 = 1%)
	Volatility float64
	// Trend is the total drift spread across the sequence (-0.1 to 0.1 for bearish to bullish)
	Trend float64
	// ShockAt injects ShockSize as the multiplier at this index; negative disables it
	ShockAt int
	// ShockSize is the multiplier used for the shock step
	ShockSize float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Count:      1000,
		Volatility: 0.002, // 0.2% per step
		Trend:      0.0,   // neutral
		ShockAt:    -1,
		ShockSize:  1,
	}
}

// Generate creates a multiplier sequence. Each value is 1 plus a normally
// distributed change and the per-step share of the trend, floored at 0.01.
func (g *AlphaGenerator) Generate(config GeneratorConfig) []float64 {
	alphas := make([]float64, config.Count)
	drift := 0.0

	if config.Count > 0 {
		drift = config.Trend / float64(config.Count)
	}

	for i := 0; i < config.Count; i++ {
		// Box-Muller transform for a normal sample
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)

		alpha := 1 + config.Volatility*z + drift
		if alpha <= 0 {
			alpha = 0.01
		}

		if i == config.ShockAt {
			alpha = config.ShockSize
		}

		alphas[i] = roundToDecimals(alpha, 6)
	}

	return alphas
}

// Generate10K is a convenience function to generate 10,000 multipliers
// with default settings for benchmarking.
func Generate10K() []float64 {
	gen := NewAlphaGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 10000

	return gen.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
