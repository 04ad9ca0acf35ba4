package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/microsoft-scalar/internal/audit"
	"github.com/DEVBOX10/microsoft-scalar/internal/maintenance"
	"github.com/DEVBOX10/microsoft-scalar/pkg/color"
	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
)

var (
	historyLimit int
	historyArea  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent maintenance runs",
	Long: `Show recent maintenance runs from .scalar/logs/maintenance.jsonl.

Examples:
  scalar history                      # Show the last 20 runs
  scalar history -n 5                 # Show the last 5 runs
  scalar history --area commit-graph  # Only commit-graph runs`,
	Run: func(cmd *cobra.Command, args []string) {
		e, _ := requireEnlistment()

		records, err := audit.NewRunLog(e.RunLogPath()).Records()
		if err != nil {
			fmtErr("read run log: %v", err)
			os.Exit(1)
		}
		records, err = filterArea(records, historyArea)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
		if historyLimit > 0 && len(records) > historyLimit {
			records = records[len(records)-historyLimit:]
		}

		if jsonOutput {
			if records == nil {
				records = []model.RunRecord{}
			}
			outputJSON(records)
			return
		}

		if len(records) == 0 {
			fmt.Println("No maintenance runs recorded.")
			return
		}
		for _, rec := range records {
			fmt.Printf("%s  %-24s %-8s %s %s\n",
				color.Dim(rec.StartedAt.Local().Format(time.DateTime)),
				rec.Area,
				rec.Variant,
				resultText(rec.Result),
				color.Dim(rec.Duration.Round(time.Millisecond).String()))
		}
	},
}

// filterArea keeps the records of one step, named as for `scalar run`.
func filterArea(records []model.RunRecord, name string) ([]model.RunRecord, error) {
	if name == "" {
		return records, nil
	}
	steps, err := maintenance.DefaultRegistry().Lookup([]string{name})
	if err != nil {
		return nil, err
	}
	var out []model.RunRecord
	for _, rec := range records {
		if rec.Area == steps[0].Area() {
			out = append(out, rec)
		}
	}
	return out, nil
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "limit number of runs shown (0 for all)")
	historyCmd.Flags().StringVar(&historyArea, "area", "", "only show runs of this step")
	rootCmd.AddCommand(historyCmd)
}
