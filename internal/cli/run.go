package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/microsoft-scalar/pkg/color"
	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
)

var runCmd = &cobra.Command{
	Use:   "run [step...]",
	Short: "Run maintenance steps once",
	Long: `Run maintenance steps once against the current enlistment.

Steps run in the order given. With no arguments the steps listed in
maintenance.steps are run.

Available steps:
  commit-graph        - Update and verify the commit-graph
  loose-objects       - Clean up loose objects
  incremental-repack  - Expire and repack pack-files

Examples:
  scalar run
  scalar run commit-graph
  scalar run loose-objects incremental-repack`,
	Run: func(cmd *cobra.Command, args []string) {
		en := requireEngine(context.Background())
		defer en.close()

		ctx, cancel := en.watchSignals(context.Background())
		defer cancel()

		outcomes := en.runner.RunAll(ctx, en.steps(args))

		if jsonOutput {
			outputJSON(outcomes)
		} else {
			printOutcomes(outcomes)
		}

		for _, o := range outcomes {
			if o.Result == model.StepFailed {
				en.close()
				os.Exit(1)
			}
		}
	},
}

func printOutcomes(outcomes []model.StepOutcome) {
	for _, o := range outcomes {
		line := fmt.Sprintf("  %-24s %s", o.Area, resultText(o.Result))
		switch o.Result {
		case model.StepFailed:
			line += color.Dim(fmt.Sprintf(" (%d errors)", o.Errors))
		case model.StepSkipped:
			line += color.Dim(" (" + o.SkipReason + ")")
		}
		fmt.Println(line)
	}
}

func resultText(r model.StepResult) string {
	switch r {
	case model.StepSucceeded:
		return color.Success(string(r))
	case model.StepFailed:
		return color.Error(string(r))
	default:
		return color.Warning(string(r))
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}
