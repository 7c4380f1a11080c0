package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/forgewave/bombard/internal/reporting"
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Print per-request and summary tables for a finished run's CSV report",
	Long: `Report reads a CSV file written by "bombard run" or the hub's aggregate
per-job report, and prints hits/latency/error tables grouped by request
name plus an overall total.

Example:
  bombard report report.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, args []string) error {
	rows, err := reporting.ReadCSV(args[0])
	if err != nil {
		return err
	}
	summary, err := reporting.Summarize(rows)
	if err != nil {
		return err
	}
	reporting.Print(os.Stdout, summary)
	return nil
}
