package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-msri/internal/config"
	"github.com/urfave/cli/v3"
)

func viewAction(_ context.Context, cmd *cli.Command) error {
	custom := optional.None[config.ScenarioConfig]()

	if path := cmd.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		custom = optional.Some(cfg)
	}

	program := tea.NewProgram(NewModel(custom, cmd.Duration("interval")), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("viewer failed: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "view",
		Usage: "Step the shock resistance tracker interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Scenario `FILE` offered as the Config scenario",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Pause between steps while playing",
				Value: DefaultPlayInterval,
			},
		},
		Action: viewAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
