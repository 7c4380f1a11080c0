package reporting

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
)

// Print renders a Summary as two tables: one row per request name, then a
// totals row, matching the shape of original_source's display().
func Print(w io.Writer, summary Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, color.New(color.Bold).Sprint(
		"REQUEST\tTOTAL HITS\tHITS/S\tMIN\tAVG\tMAX\t90%\t95%\t99%\tERRORS\tERROR RATE"))
	for _, rs := range summary.Requests {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%dms\t%dms\t%dms\t%dms\t%dms\t%dms\t%d\t%s\n",
			rs.Name, rs.TotalHits, rs.HitsPerSec,
			rs.MinMS, rs.AvgMS, rs.MaxMS, rs.P90MS, rs.P95MS, rs.P99MS,
			rs.Errors, errorRateString(rs.ErrorRate))
	}
	tw.Flush()

	fmt.Fprintln(w)

	stw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(stw, color.New(color.Bold, color.FgGreen).Sprint(
		"TOTAL EXECUTION TIME (S)\tTOTAL HITS\tHITS/S\tTOTAL ERRORS\tERROR RATE"))
	fmt.Fprintf(stw, "%.2f\t%d\t%.2f\t%d\t%s\n",
		summary.ExecutionSeconds, summary.TotalHits, summary.TotalHitsPerSec,
		summary.TotalErrors, errorRateString(summary.ErrorRate))
	stw.Flush()
}

func errorRateString(rate float64) string {
	s := fmt.Sprintf("%.2f%%", rate)
	if rate > 0 {
		return color.RedString(s)
	}
	return color.GreenString(s)
}
