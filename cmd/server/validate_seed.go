package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yard-planner/backend/internal/config"
	"github.com/yard-planner/backend/internal/parser"
	"github.com/yard-planner/backend/internal/yard"
)

var validateSeedCmd = &cobra.Command{
	Use:   "validate-seed <file>",
	Short: "Seed an empty yard from a fixture and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		report, err := validateSeed(cfg.YardLayout(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if len(report.Issues) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d record(s) need attention\n", len(report.Issues))
			os.Exit(2)
		}
		return nil
	},
}

func validateSeed(layout yard.Layout, path string) (yard.SeedReport, error) {
	fixture, err := parser.LoadSeedFile(path)
	if err != nil {
		return yard.SeedReport{}, err
	}
	engine, err := yard.NewEngine(layout)
	if err != nil {
		return yard.SeedReport{}, err
	}
	return engine.Seed(fixture.Containers)
}
