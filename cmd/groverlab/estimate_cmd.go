package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qsimlab/groverlab/estimation"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Run a quantum resource estimation batch",
	Long: `Estimate submits every problem of a batch config to the external ` +
		`resource estimator CLI, once per hardware target, and files one JSON ` +
		`report per run into a timestamped directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runEstimation(cmd)
	},
}

func init() {
	estimateCmd.Flags().String("config", "",
		"estimation batch config YAML file")
	estimateCmd.Flags().String("output-dir", "estimates",
		"directory the timestamped batch directories go under")
	estimateCmd.Flags().String("estimator", "qre",
		"resource estimator command to invoke")
	estimateCmd.Flags().Duration("timeout", 10*time.Minute,
		"overall batch timeout")

	if err := estimateCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(estimateCmd)
}

func runEstimation(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	estimator, _ := cmd.Flags().GetString("estimator")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := estimation.LoadConfig(configPath)
	if err != nil {
		return err
	}

	runner := estimation.NewCLIRunner(estimator).
		WithWorkspace(estimation.WorkspaceFromEnv())
	manager := estimation.NewManager(runner, outputDir)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	records, err := manager.RunBatch(ctx, cfg)
	if err != nil {
		return err
	}

	for _, record := range records {
		log.Info().
			Str("problem_id", record.ProblemID).
			Str("target", record.Target).
			Str("output", record.OutputPath).
			Msg("estimation run finished")
	}

	return nil
}
