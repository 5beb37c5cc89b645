package tracker

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rxtech-lab/argo-msri/internal/logger"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type TrackerTestSuite struct {
	suite.Suite
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}

func (suite *TrackerTestSuite) TestNewTracker() {
	tr := NewTracker(0.3)

	suite.Equal(0.3, tr.Mu())
	suite.Equal(DefaultMomentum, tr.Momentum())
	suite.Equal(1.0, tr.Price())
	suite.Equal(SingularityPropagate, tr.Policy())
	suite.Equal(0, tr.Len())
	suite.Empty(tr.History())
	suite.Empty(tr.IndicatorHistory())

	_, ok := tr.Last()
	suite.False(ok)
}

func (suite *TrackerTestSuite) TestLengthInvariant() {
	for _, n := range []int{0, 1, 2, 17, 100} {
		tr := NewTracker(0.5)
		for i := 0; i < n; i++ {
			_, err := tr.Step(1.001)
			suite.Require().NoError(err)
		}

		suite.Equal(n, tr.Len(), "steps=%d", n)
		suite.Len(tr.History(), n)
		suite.Len(tr.IndicatorHistory(), n)
	}
}

func (suite *TrackerTestSuite) TestPriceInvariant() {
	rng := rand.New(rand.NewSource(7))
	tr := NewTracker(1)

	expected := 1.0
	for i := 0; i < 250; i++ {
		alpha := 0.9 + rng.Float64()*0.2
		expected *= alpha
		_, err := tr.Step(alpha)
		suite.Require().NoError(err)
	}

	suite.InEpsilon(expected, tr.Price(), 1e-12)
}

func (suite *TrackerTestSuite) TestSmoothingStaysWithinBounds() {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		lo := rng.Float64()*4 - 2
		hi := lo + rng.Float64()*3
		seed := lo + rng.Float64()*(hi-lo)
		alpha := lo + rng.Float64()*(hi-lo)
		momentum := rng.Float64() * 0.999

		tr := NewTracker(seed, WithMomentum(momentum))
		sample, err := tr.Step(alpha)
		suite.Require().NoError(err)

		suite.GreaterOrEqual(sample.Mu, lo-1e-12)
		suite.LessOrEqual(sample.Mu, hi+1e-12)
	}
}

func (suite *TrackerTestSuite) TestShockResistanceIsOdd() {
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 1000; i++ {
		mu := rng.NormFloat64() * 3
		if IsSingular(mu) {
			continue
		}

		suite.Equal(-ShockResistance(mu), ShockResistance(-mu), "mu=%v", mu)
	}
}

func (suite *TrackerTestSuite) TestShockResistanceKeepsSign() {
	values := []float64{1e-300, 1e-9, 0.25, 0.5, 0.999999, 1.000001, 1.5, 3, 1e6, 1e150}

	for _, v := range values {
		suite.Greater(ShockResistance(v), 0.0, "mu=%v", v)
		suite.Less(ShockResistance(-v), 0.0, "mu=%v", -v)
	}

	suite.Equal(0.0, ShockResistance(0))
}

func (suite *TrackerTestSuite) TestShockResistanceSingularity() {
	suite.True(math.IsInf(ShockResistance(1), 1))
	suite.True(math.IsInf(ShockResistance(-1), -1))
	suite.True(IsSingular(1))
	suite.True(IsSingular(-1))
	suite.False(IsSingular(0.9999999))
	suite.False(IsFinite(ShockResistance(1)))
	suite.True(IsFinite(ShockResistance(0.5)))
}

func (suite *TrackerTestSuite) TestStepChangeScenario() {
	tr := NewTracker(1)

	alpha := 0.5
	for i := 0; i < 100; i++ {
		_, err := tr.Step(alpha)
		suite.Require().NoError(err)
		alpha = 1.01
	}

	history := tr.History()
	suite.Require().Len(history, 100)
	suite.InDelta(0.95, history[0], 1e-12)
	suite.InDelta(0.956, history[1], 1e-12)

	for i := 2; i < len(history); i++ {
		suite.GreaterOrEqual(history[i], history[i-1], "step %d", i)
		suite.Less(history[i], 1.01)
	}

	suite.InDelta(1.01, history[99], 0.01)
	suite.InEpsilon(0.5*math.Pow(1.01, 99), tr.Price(), 1e-9)

	for i, mu := range history {
		suite.Equal(ShockResistance(mu), tr.IndicatorHistory()[i])
	}
}

func (suite *TrackerTestSuite) TestZeroSeedZeroAlpha() {
	tr := NewTracker(0)

	sample, err := tr.Step(0)
	suite.Require().NoError(err)

	suite.Equal(0.0, tr.History()[0])
	suite.Equal(0.0, tr.IndicatorHistory()[0])
	suite.Equal(0.0, tr.Price())
	suite.Equal(Sample{Step: 0, Alpha: 0, Price: 0, Mu: 0, Indicator: 0}, sample)
}

func (suite *TrackerTestSuite) TestNearSingularityStaysFinite() {
	tr := NewTracker(0.999999, WithMomentum(0))

	sample, err := tr.Step(0.999999)
	suite.Require().NoError(err)

	suite.Equal(0.999999, sample.Mu)
	suite.True(IsFinite(sample.Indicator))
	suite.Greater(math.Abs(sample.Indicator), 1e5)
}

func (suite *TrackerTestSuite) TestSingularityPropagates() {
	tr := NewTracker(1, WithMomentum(0))

	sample, err := tr.Step(1)
	suite.NoError(err)
	suite.True(math.IsInf(sample.Indicator, 1))
	suite.Equal(1, tr.Len())
	suite.True(math.IsInf(tr.IndicatorHistory()[0], 1))

	sample, err = tr.Step(-1)
	suite.NoError(err)
	suite.True(math.IsInf(sample.Indicator, -1))
	suite.Equal(2, tr.Len())
}

func (suite *TrackerTestSuite) TestSingularityRejected() {
	tr := NewTracker(0.5, WithMomentum(0), WithSingularityPolicy(SingularityReject))

	_, err := tr.Step(0.25)
	suite.Require().NoError(err)

	_, err = tr.Step(1)
	suite.Require().Error(err)
	suite.True(errors.IsSingularityError(err))

	var singular *errors.SingularityError
	suite.Require().True(errors.As(err, &singular))
	suite.Equal(1, singular.Step)
	suite.Equal(1.0, singular.Mu)

	// nothing moved
	suite.Equal(1, tr.Len())
	suite.Equal(0.25, tr.Mu())
	suite.Equal(0.25, tr.Price())

	// the tracker keeps working afterwards
	sample, err := tr.Step(0.5)
	suite.NoError(err)
	suite.Equal(1, sample.Step)
	suite.Equal(0.125, sample.Price)
}

func (suite *TrackerTestSuite) TestHistoriesAreCopies() {
	tr := NewTracker(0)
	_, err := tr.Step(0.5)
	suite.Require().NoError(err)

	history := tr.History()
	history[0] = 42
	indicators := tr.IndicatorHistory()
	indicators[0] = 42

	suite.Equal(0.05, roundTo(tr.History()[0], 12))
	suite.NotEqual(42.0, tr.IndicatorHistory()[0])
}

func (suite *TrackerTestSuite) TestLast() {
	tr := NewTracker(0)
	_, err := tr.Step(0.5)
	suite.Require().NoError(err)
	_, err = tr.Step(2)
	suite.Require().NoError(err)

	last, ok := tr.Last()
	suite.True(ok)
	suite.Equal(1, last.Step)
	suite.Equal(2.0, last.Alpha)
	suite.Equal(1.0, last.Price)
	suite.Equal(tr.Mu(), last.Mu)
	suite.Equal(ShockResistance(tr.Mu()), last.Indicator)
}

func (suite *TrackerTestSuite) TestOnStepCallback() {
	var seen []Sample
	tr := NewTracker(1, WithOnStep(func(sample Sample) {
		seen = append(seen, sample)
	}))

	for _, alpha := range []float64{0.5, 1.01, 1.01} {
		_, err := tr.Step(alpha)
		suite.Require().NoError(err)
	}

	suite.Require().Len(seen, 3)
	for i, sample := range seen {
		suite.Equal(i, sample.Step)
		suite.Equal(tr.History()[i], sample.Mu)
	}
	suite.Equal(0.5, seen[0].Alpha)
	suite.Equal(0.5, seen[0].Price)
}

func (suite *TrackerTestSuite) TestPriceIsLoggedEveryStep() {
	core, logs := observer.New(zapcore.InfoLevel)
	log := &logger.Logger{Logger: zap.New(core)}

	tr := NewTracker(1, WithLogger(log))
	for _, alpha := range []float64{0.5, 2, 3} {
		_, err := tr.Step(alpha)
		suite.Require().NoError(err)
	}

	entries := logs.FilterMessage("price").All()
	suite.Require().Len(entries, 3)

	expected := []float64{0.5, 1, 3}
	for i, entry := range entries {
		fields := entry.ContextMap()
		suite.Equal(int64(i), fields["step"])
		suite.Equal(expected[i], fields["price"])
	}
}

func (suite *TrackerTestSuite) TestParseSingularityPolicy() {
	policy, err := ParseSingularityPolicy("")
	suite.NoError(err)
	suite.Equal(SingularityPropagate, policy)

	policy, err = ParseSingularityPolicy("reject")
	suite.NoError(err)
	suite.Equal(SingularityReject, policy)

	_, err = ParseSingularityPolicy("clamp")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPolicy))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))

	return math.Round(v*p) / p
}
