package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-msri/internal/server"
	"github.com/rxtech-lab/argo-msri/internal/store"
	"github.com/rxtech-lab/argo-msri/internal/version"
	"github.com/stretchr/testify/suite"
)

type MsriCmdTestSuite struct {
	suite.Suite
	tempDir string
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
}

func TestMsriCmdSuite(t *testing.T) {
	suite.Run(t, new(MsriCmdTestSuite))
}

func (suite *MsriCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.stdout = &bytes.Buffer{}
	suite.stderr = &bytes.Buffer{}
}

func (suite *MsriCmdTestSuite) run(args ...string) error {
	app := newApp(suite.stdout, suite.stderr)

	return app.Run(context.Background(), append([]string{"msri", "--log-level", "error"}, args...))
}

func (suite *MsriCmdTestSuite) TestRunReferenceScenario() {
	output := filepath.Join(suite.tempDir, "results")

	suite.Require().NoError(suite.run("run", "--output", output))

	for _, name := range []string{store.StepsParquetFile, store.StepsCSVFile, store.SummaryFile, trackerChartFile, surfaceChartFile} {
		suite.FileExists(filepath.Join(output, name))
	}

	summary, err := store.ReadSummary(output)
	suite.Require().NoError(err)
	suite.Equal(100, summary.Steps)
	suite.Equal(1.0, summary.Seed)

	suite.Contains(suite.stdout.String(), "100 steps")
	suite.Contains(suite.stdout.String(), "history: [0.9")
}

func (suite *MsriCmdTestSuite) TestRunWithConfig() {
	configPath := filepath.Join(suite.tempDir, "scenario.yaml")
	suite.Require().NoError(os.WriteFile(configPath, []byte(`
seed: 0.5
momentum: 0
alphas: [0.5, 2, 1]
surface:
  density: 0.5
  ceiling: 2
`), 0644))

	output := filepath.Join(suite.tempDir, "custom")
	suite.Require().NoError(suite.run("run", "--config", configPath, "--output", output))

	summary, err := store.ReadSummary(output)
	suite.Require().NoError(err)
	suite.Equal(3, summary.Steps)
	suite.Equal(1.0, summary.FinalMu)
	suite.Equal(1.0, summary.FinalPrice)
	suite.Equal(1, summary.NonFiniteIndicators)

	csv, err := os.ReadFile(filepath.Join(output, store.StepsCSVFile))
	suite.Require().NoError(err)
	suite.Len(strings.Split(strings.TrimSpace(string(csv)), "\n"), 4)
}

func (suite *MsriCmdTestSuite) TestRunRejectsSingularity() {
	configPath := filepath.Join(suite.tempDir, "reject.yaml")
	suite.Require().NoError(os.WriteFile(configPath, []byte(`
seed: 1
alphas: [1]
singularity_policy: reject
`), 0644))

	err := suite.run("run", "--config", configPath, "--output", filepath.Join(suite.tempDir, "reject"))
	suite.Require().Error(err)
	suite.Contains(err.Error(), "singular")
	suite.NoFileExists(filepath.Join(suite.tempDir, "reject", store.SummaryFile))
}

func (suite *MsriCmdTestSuite) TestRunMissingConfig() {
	err := suite.run("run", "--config", filepath.Join(suite.tempDir, "missing.yaml"))
	suite.Require().Error(err)
	suite.Contains(err.Error(), "failed to load config")
}

func (suite *MsriCmdTestSuite) TestSurface() {
	output := filepath.Join(suite.tempDir, "charts", "surface.html")

	suite.Require().NoError(suite.run("surface", "--density", "0.1", "--ceiling", "2", "--output", output))
	suite.FileExists(output)
	suite.Contains(suite.stdout.String(), "of 400 points visible")
}

func (suite *MsriCmdTestSuite) TestSurfaceInvalidDensity() {
	err := suite.run("surface", "--density", "0", "--output", filepath.Join(suite.tempDir, "s.html"))
	suite.Error(err)
}

func (suite *MsriCmdTestSuite) TestVersion() {
	suite.Require().NoError(suite.run("version"))
	suite.Equal(version.GetVersion()+"\n", suite.stdout.String())
}

func (suite *MsriCmdTestSuite) TestInvalidLogLevel() {
	app := newApp(suite.stdout, suite.stderr)

	err := app.Run(context.Background(), []string{"msri", "--log-level", "loud", "version"})
	suite.NoError(err)

	app = newApp(suite.stdout, suite.stderr)
	err = app.Run(context.Background(), []string{"msri", "--log-level", "loud", "surface", "--output", filepath.Join(suite.tempDir, "x.html")})
	suite.Error(err)
}

func (suite *MsriCmdTestSuite) TestServeChartsPrintsBoundAddress() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := server.NewServer(server.Config{}, nil)
	suite.Require().NoError(serveCharts(ctx, suite.stdout, srv, "127.0.0.1:0"))

	out := suite.stdout.String()
	suite.Contains(out, "serving charts at http://127.0.0.1:")
	suite.NotContains(out, "127.0.0.1:0 ")
	suite.Contains(out, srv.BaseURL())
}

func (suite *MsriCmdTestSuite) TestServeChartsAddressInUse() {
	first := server.NewServer(server.Config{}, nil)
	suite.Require().NoError(first.Start("127.0.0.1:0"))
	defer first.Stop()

	err := serveCharts(context.Background(), suite.stdout, server.NewServer(server.Config{}, nil), first.Address())
	suite.Require().Error(err)
	suite.Contains(err.Error(), "failed to start chart server")
	suite.Empty(suite.stdout.String())
}
