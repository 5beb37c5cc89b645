package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rxtech-lab/argo-msri/internal/chart"
	"github.com/rxtech-lab/argo-msri/internal/config"
	"github.com/rxtech-lab/argo-msri/internal/logger"
	"github.com/rxtech-lab/argo-msri/internal/runner"
	"github.com/rxtech-lab/argo-msri/internal/server"
	"github.com/rxtech-lab/argo-msri/internal/store"
	"github.com/rxtech-lab/argo-msri/internal/surface"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
	"github.com/rxtech-lab/argo-msri/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	trackerChartFile = "tracker.html"
	surfaceChartFile = "surface.html"
	defaultAddr      = "127.0.0.1:8080"
)

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return logger.NewLoggerWithLevel(level)
}

// runAction runs a scenario, exports its steps and charts, and optionally serves them.
func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	stepStore, err := store.NewStepStore(log)
	if err != nil {
		return fmt.Errorf("failed to create step store: %w", err)
	}
	defer stepStore.Close()

	var bar *progressbar.ProgressBar

	onRunStart := runner.OnRunStartCallback(func(_ string, total int) error {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Running tracker"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(cmd.Root().ErrWriter),
		)

		return nil
	})
	onStep := runner.OnStepCallback(func(_ int, _ int, _ tracker.Sample) error {
		return bar.Add(1)
	})
	onRunEnd := runner.OnRunEndCallback(func(_ string, _ error) {
		if bar != nil {
			bar.Finish()
		}
	})

	result, err := runner.NewRunner(cfg, log, runner.WithSink(stepStore)).Run(ctx, runner.LifecycleCallbacks{
		OnRunStart: &onRunStart,
		OnStep:     &onStep,
		OnRunEnd:   &onRunEnd,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	grid, err := surface.Sample(cfg.Surface.Density, cfg.Surface.Ceiling)
	if err != nil {
		return fmt.Errorf("failed to sample surface: %w", err)
	}

	output := cmd.String("output")

	if err := stepStore.Write(output); err != nil {
		return fmt.Errorf("failed to export steps: %w", err)
	}

	if err := store.WriteSummary(output, result.Summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if err := writeFile(filepath.Join(output, trackerChartFile), func(w io.Writer) error {
		return chart.RenderTracker(w, result)
	}); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(output, surfaceChartFile), func(w io.Writer) error {
		return chart.RenderSurface(w, grid)
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "run %s: %d steps, mu=%v, price=%v, msri=%v\n",
		result.RunID, result.Summary.Steps, result.Summary.FinalMu, result.Summary.FinalPrice, result.Summary.FinalIndicator)
	fmt.Fprintf(cmd.Root().Writer, "history: %v\n", result.History)

	if cmd.Bool("show") {
		return show(ctx, cmd, log, server.Config{Result: result, Grid: grid})
	}

	return nil
}

// surfaceAction samples the sensitivity surface and writes it as a chart.
func surfaceAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	grid, err := surface.Sample(cmd.Float("density"), cmd.Float("ceiling"))
	if err != nil {
		return fmt.Errorf("failed to sample surface: %w", err)
	}

	log.Info("Sampled surface",
		zap.Int("points", grid.Size()),
		zap.Int("visible", len(grid.Visible())),
	)

	output := cmd.String("output")

	if err := writeFile(output, func(w io.Writer) error {
		return chart.RenderSurface(w, grid)
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "surface: %d of %d points visible, written to %s\n",
		len(grid.Visible()), grid.Size(), output)

	if cmd.Bool("show") {
		return show(ctx, cmd, log, server.Config{Grid: grid})
	}

	return nil
}

func versionAction(_ context.Context, cmd *cli.Command) error {
	fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

	return nil
}

// show serves the charts until the process is interrupted.
func show(ctx context.Context, cmd *cli.Command, log *logger.Logger, cfg server.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serveCharts(ctx, cmd.Root().Writer, server.NewServer(cfg, log), cmd.String("addr"))
}

// serveCharts binds addr, prints the bound URL, and serves until ctx is done.
func serveCharts(ctx context.Context, w io.Writer, srv *server.Server, addr string) error {
	if err := srv.Start(addr); err != nil {
		return fmt.Errorf("failed to start chart server: %w", err)
	}

	fmt.Fprintf(w, "serving charts at %s (Ctrl+C to stop)\n", srv.BaseURL())

	<-ctx.Done()

	return srv.Stop()
}

func writeFile(path string, render func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := render(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func showFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "show",
			Usage: "Serve the charts over HTTP after writing them",
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Address to serve the charts on",
			Value: defaultAddr,
		},
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "msri",
		Usage:     "Track the market shock resistance indicator",
		Version:   version.GetVersion(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a scenario and export its steps, summary and charts",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the scenario `FILE`. Defaults to the reference scenario",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output `DIR` for steps, summary and charts",
						Value:   "results",
					},
				}, showFlags()...),
				Action: runAction,
			},
			{
				Name:  "surface",
				Usage: "Sample the sensitivity surface and write it as a chart",
				Flags: append([]cli.Flag{
					&cli.FloatFlag{
						Name:  "density",
						Usage: "Spacing between axis samples",
						Value: surface.DefaultDensity,
					},
					&cli.FloatFlag{
						Name:  "ceiling",
						Usage: "Axis range and maximum visible value",
						Value: surface.DefaultCeiling,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output HTML `FILE`",
						Value:   surfaceChartFile,
					},
				}, showFlags()...),
				Action: surfaceAction,
			},
			{
				Name:   "version",
				Usage:  "Print the engine version",
				Action: versionAction,
			},
		},
	}
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
