package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-msri/internal/config"
	"github.com/rxtech-lab/argo-msri/internal/logger"
	"github.com/rxtech-lab/argo-msri/internal/runner"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
	"github.com/stretchr/testify/suite"
)

// StepStoreTestSuite is a test suite for StepStore
type StepStoreTestSuite struct {
	suite.Suite
	store  *StepStore
	logger *logger.Logger
}

func TestStepStoreSuite(t *testing.T) {
	suite.Run(t, new(StepStoreTestSuite))
}

// SetupSuite runs once before all tests in the suite
func (suite *StepStoreTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()

	store, err := NewStepStore(suite.logger)
	suite.Require().NoError(err)
	suite.store = store
}

// TearDownSuite runs once after all tests in the suite
func (suite *StepStoreTestSuite) TearDownSuite() {
	if suite.store != nil {
		suite.store.Close()
	}
}

// SetupTest runs before each test
func (suite *StepStoreTestSuite) SetupTest() {
	suite.Require().NoError(suite.store.Cleanup())
}

func (suite *StepStoreTestSuite) TestRecordAndSteps() {
	samples := []tracker.Sample{
		{Step: 0, Alpha: 0.5, Price: 0.5, Mu: 0.95, Indicator: tracker.ShockResistance(0.95)},
		{Step: 1, Alpha: 1.01, Price: 0.505, Mu: 0.956, Indicator: tracker.ShockResistance(0.956)},
	}

	// insert out of order
	suite.Require().NoError(suite.store.Record("run-a", samples[1]))
	suite.Require().NoError(suite.store.Record("run-a", samples[0]))

	got, err := suite.store.Steps("run-a")
	suite.Require().NoError(err)
	suite.Equal(samples, got)

	empty, err := suite.store.Steps("missing")
	suite.Require().NoError(err)
	suite.Empty(empty)
}

func (suite *StepStoreTestSuite) TestNonFiniteIndicatorRoundTrips() {
	suite.Require().NoError(suite.store.Record("run-inf", tracker.Sample{Step: 0, Alpha: 1, Price: 1, Mu: 1, Indicator: math.Inf(1)}))
	suite.Require().NoError(suite.store.Record("run-inf", tracker.Sample{Step: 1, Alpha: -1, Price: -1, Mu: -1, Indicator: math.Inf(-1)}))

	got, err := suite.store.Steps("run-inf")
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.True(math.IsInf(got[0].Indicator, 1))
	suite.True(math.IsInf(got[1].Indicator, -1))
}

func (suite *StepStoreTestSuite) TestDuplicateStepRejected() {
	sample := tracker.Sample{Step: 0, Alpha: 1, Price: 1, Mu: 0.5, Indicator: 1}
	suite.Require().NoError(suite.store.Record("dup", sample))
	suite.Error(suite.store.Record("dup", sample))
}

func (suite *StepStoreTestSuite) TestRunnerWritesThroughSink() {
	cfg := config.DefaultConfig()
	cfg.Steps = 20

	result, err := runner.NewRunner(cfg, nil, runner.WithSink(suite.store)).Run(context.Background(), runner.LifecycleCallbacks{})
	suite.Require().NoError(err)

	got, err := suite.store.Steps(result.RunID)
	suite.Require().NoError(err)
	suite.Equal(result.Samples(), got)

	second, err := runner.NewRunner(cfg, nil, runner.WithSink(suite.store)).Run(context.Background(), runner.LifecycleCallbacks{})
	suite.Require().NoError(err)

	runs, err := suite.store.Runs()
	suite.Require().NoError(err)
	suite.ElementsMatch([]string{result.RunID, second.RunID}, runs)
}

func (suite *StepStoreTestSuite) TestWrite() {
	for i, mu := range []float64{0.1, 0.2, 0.3} {
		suite.Require().NoError(suite.store.Record("run-w", tracker.Sample{Step: i, Alpha: 1, Price: 1, Mu: mu, Indicator: tracker.ShockResistance(mu)}))
	}

	dir := filepath.Join(suite.T().TempDir(), "out")
	suite.Require().NoError(suite.store.Write(dir))

	suite.FileExists(filepath.Join(dir, StepsParquetFile))

	csv, err := os.ReadFile(filepath.Join(dir, StepsCSVFile))
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	suite.Len(lines, 4)
	suite.Equal("run_id,step,alpha,price,mu,indicator", lines[0])
	suite.True(strings.HasPrefix(lines[1], "run-w,0,"))
}

func (suite *StepStoreTestSuite) TestWriteToQuotedPath() {
	suite.Require().NoError(suite.store.Record("run-q", tracker.Sample{Step: 0, Alpha: 0.5, Price: 0.5, Mu: 0.95, Indicator: tracker.ShockResistance(0.95)}))

	dir := filepath.Join(suite.T().TempDir(), "it's results")
	suite.Require().NoError(suite.store.Write(dir))

	suite.FileExists(filepath.Join(dir, StepsParquetFile))
	suite.FileExists(filepath.Join(dir, StepsCSVFile))
}

func (suite *StepStoreTestSuite) TestQuoteLiteral() {
	suite.Equal("'plain'", quoteLiteral("plain"))
	suite.Equal("'it''s'", quoteLiteral("it's"))
	suite.Equal(`''''''`, quoteLiteral("''"))
}

func (suite *StepStoreTestSuite) TestNilStore() {
	var store *StepStore

	suite.Error(store.Record("x", tracker.Sample{}))
	_, err := store.Steps("x")
	suite.Error(err)
	suite.Error(store.Write(suite.T().TempDir()))
	suite.NoError(store.Close())
}
