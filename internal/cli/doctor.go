package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/microsoft-scalar/internal/audit"
	"github.com/DEVBOX10/microsoft-scalar/internal/doctor"
	"github.com/DEVBOX10/microsoft-scalar/internal/gitproc"
	"github.com/DEVBOX10/microsoft-scalar/pkg/color"
	"github.com/DEVBOX10/microsoft-scalar/pkg/fsutil"
)

var (
	doctorStrict bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check enlistment health",
	Long: `Check enlistment health.

Runs diagnostic checks on the object store and the maintenance history
and reports any issues. Use --strict to also run git commit-graph verify.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e, cfg := requireEnlistment()

		git := gitproc.NewProcess(cfg.Git.Path, e.Root)
		doc := &doctor.Doctor{
			Enlistment: e,
			FileSystem: fsutil.NewPhysical(),
			Lock:       newLockManager(e, cfg),
			Runs:       audit.NewRunLog(e.RunLogPath()),
			Git:        git,
			Features:   detectFeatures(ctx, git, cfg),
			StaleAfter: cfg.Maintenance.StaleAfter,
			Now:        time.Now,
		}
		result, err := doc.Check(ctx, doctorStrict)
		if err != nil {
			fmtErr("doctor: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(result)
		} else if len(result.Findings) == 0 {
			fmt.Println("Enlistment is healthy.")
		} else {
			fmt.Printf("Findings (%d):\n", len(result.Findings))
			for _, f := range result.Findings {
				fmt.Printf("  [%s] %s: %s\n", color.Severity(f.Severity), f.Category, f.Description)
			}
		}

		if !result.Healthy {
			os.Exit(1)
		}
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "also verify the commit-graph with git")
	rootCmd.AddCommand(doctorCmd)
}
