package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/qsimlab/groverlab/datarecording"
	"github.com/qsimlab/groverlab/experiment"
	"github.com/qsimlab/groverlab/numutil"
)

var reportCmd = &cobra.Command{
	Use:   "report <recording.sqlite3>",
	Short: "Summarize the batches stored in a recording database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportBatches(cmd, args[0])
	},
}

func init() {
	reportCmd.Flags().String("scenario", "",
		"only show batches for this scenario")
	reportCmd.Flags().Int("limit", 0,
		"cap the number of batches shown; 0 shows all")

	rootCmd.AddCommand(reportCmd)
}

func reportBatches(cmd *cobra.Command, dbFilename string) error {
	scenario, _ := cmd.Flags().GetString("scenario")
	limit, _ := cmd.Flags().GetInt("limit")

	reader := datarecording.NewReader(dbFilename)
	defer reader.Close()

	reader.MapTable("trial_batches", experiment.BatchRecord{})

	params := datarecording.QueryParams{
		OrderBy: "Scenario",
		Limit:   limit,
	}
	if scenario != "" {
		params.Where = "Scenario = ?"
		params.Args = []any{scenario}
	}

	rows, total, err := reader.Query(cmd.Context(), "trial_batches", params)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w,
		"SCENARIO\tSIZE\tMARKED\tROUNDS\tTRIALS\tPREDICTED\tEMPIRICAL")

	var empiricalRates []float64
	for _, row := range rows {
		record, ok := row.(experiment.BatchRecord)
		if !ok {
			continue
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.6f\t%.6f\n",
			record.Scenario, record.SpaceSize, record.MarkedCount,
			record.Iterations, record.Trials,
			record.PredictedProbability, record.EmpiricalRate)

		empiricalRates = append(empiricalRates, record.EmpiricalRate)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("%d of %d batches shown\n", len(rows), total)
	if len(empiricalRates) > 1 {
		fmt.Printf("empirical rate mean %.6f, stddev %.6f\n",
			numutil.Mean(empiricalRates), numutil.StdDev(empiricalRates))
	}

	return nil
}
