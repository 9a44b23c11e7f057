package main

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qsimlab/groverlab/experiment"
	"github.com/qsimlab/groverlab/instance"
	"github.com/qsimlab/groverlab/search"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run trial batches for a scenario or an instance catalog",
	Long: `Run samples measurement outcomes for one ad-hoc scenario, or for ` +
		`every instance in a catalog directory, and records the results to a ` +
		`SQLite database.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBatches(cmd)
	},
}

func init() {
	runCmd.Flags().String("instances", "",
		"directory of instance YAML files to run")
	runCmd.Flags().Int("size", 1024,
		"search space size for an ad-hoc scenario")
	runCmd.Flags().Float64("marked-fraction", 1.0/1024.0,
		"marked fraction for an ad-hoc scenario")
	runCmd.Flags().Int("iterations", -1,
		"rounds per trial; a negative value plans the optimal count")
	runCmd.Flags().Int("trials", 10000, "trials per scenario")
	runCmd.Flags().Int64("seed", 0, "seed all randomness derives from")
	runCmd.Flags().Int("parallelism", 0,
		"worker count; 0 samples serially, negative uses GOMAXPROCS")
	runCmd.Flags().Bool("monitor", false,
		"serve the monitoring API while running")
	runCmd.Flags().Int("monitor-port", 0,
		"monitor port; 0 picks a random port")
	runCmd.Flags().Bool("record-trials", false,
		"record every individual outcome, not just batch summaries")
	runCmd.Flags().String("output", "",
		"recording database name, without the .sqlite3 suffix")

	rootCmd.AddCommand(runCmd)
}

func runBatches(cmd *cobra.Command) error {
	e := buildExperiment(cmd)
	defer e.Terminate()

	if err := registerScenarios(cmd, e); err != nil {
		return err
	}

	iterations, _ := cmd.Flags().GetInt("iterations")
	trials, _ := cmd.Flags().GetInt("trials")

	for _, name := range e.ScenarioNames() {
		batch, err := e.RunScenario(name, iterations, trials)
		if err != nil {
			return err
		}

		log.Info().
			Str("scenario", name).
			Int("iterations", batch.IterationsUsed).
			Int("trials", batch.TrialCount()).
			Float64("predicted", batch.PredictedProbability).
			Float64("empirical", batch.EmpiricalSuccessRate()).
			Msg("batch finished")
	}

	return nil
}

func buildExperiment(cmd *cobra.Command) *experiment.Experiment {
	flags := cmd.Flags()

	seed, _ := flags.GetInt64("seed")
	parallelism, _ := flags.GetInt("parallelism")
	monitor, _ := flags.GetBool("monitor")
	monitorPort, _ := flags.GetInt("monitor-port")
	recordTrials, _ := flags.GetBool("record-trials")
	output, _ := flags.GetString("output")

	b := experiment.MakeBuilder().
		WithName("groverlab run").
		WithSeed(seed)

	if parallelism != 0 {
		b = b.WithParallelRunner(parallelism)
	}

	if monitor {
		b = b.WithMonitorPort(monitorPort)
	} else {
		b = b.WithoutMonitoring()
	}

	if recordTrials {
		b = b.WithTrialRecording()
	}

	if output != "" {
		b = b.WithOutputFileName(output)
	}

	return b.Build()
}

func registerScenarios(cmd *cobra.Command, e *experiment.Experiment) error {
	dir, _ := cmd.Flags().GetString("instances")
	if dir == "" {
		return registerAdHocScenario(cmd, e)
	}

	instances, err := instance.LoadDir(dir)
	if err != nil {
		return err
	}

	for _, inst := range instances {
		s, err := scenarioFromInstance(inst)
		if err != nil {
			return fmt.Errorf("instance %s: %w", inst.ID, err)
		}

		e.RegisterScenario(inst.ID, s)
	}

	return nil
}

func registerAdHocScenario(cmd *cobra.Command, e *experiment.Experiment) error {
	size, _ := cmd.Flags().GetInt("size")
	fraction, _ := cmd.Flags().GetFloat64("marked-fraction")

	markedCount := int(math.Round(fraction * float64(size)))
	s, err := search.ScenarioWithMarkedCount(size, markedCount)
	if err != nil {
		return err
	}

	e.RegisterScenario("scenario", s)

	return nil
}

func scenarioFromInstance(inst instance.Instance) (search.Scenario, error) {
	markedCount := int(math.Round(inst.MarkedCount()))

	return search.ScenarioWithMarkedCount(inst.DatasetSize, markedCount)
}
