package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/qsimlab/groverlab/logging"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "groverlab",
	Short: "Groverlab studies amplitude-amplified search on classical hardware.",
	Long: `Groverlab plans amplitude-amplification schedules, samples trial ` +
		`batches under the analytic success model, compares the results against ` +
		`a classical exhaustive-search baseline, and drives quantum resource ` +
		`estimation batches.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level, _ := cmd.Flags().GetString("log-level")
		pretty, _ := cmd.Flags().GetBool("pretty")

		logging.SetGlobalLogger(logging.New(logging.Config{
			Level:  level,
			Pretty: pretty,
		}))
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().Bool("pretty", true,
		"use the pretty console log format")
}
