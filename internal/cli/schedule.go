package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/microsoft-scalar/pkg/logging"
	"github.com/DEVBOX10/microsoft-scalar/pkg/metrics"
)

var (
	scheduleInterval time.Duration
	scheduleMetrics  bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule [step...]",
	Short: "Run maintenance steps on an interval",
	Long: `Run maintenance steps repeatedly until interrupted.

The first pass starts immediately. Interrupting (Ctrl+C or SIGTERM) lets
the running git command finish, skips optional work such as rewriting a
commit-graph that failed verification, and starts no further steps.

Examples:
  scalar schedule
  scalar schedule --interval 15m commit-graph
  scalar schedule --serve-metrics   # Also serve /metrics on metrics.addr`,
	Run: func(cmd *cobra.Command, args []string) {
		en := requireEngine(context.Background())
		defer en.close()

		interval := scheduleInterval
		if interval == 0 {
			interval = en.config.Maintenance.Interval
		}

		ctx, cancel := en.watchSignals(context.Background())
		defer cancel()

		if scheduleMetrics {
			go func() {
				if err := metrics.StartServer(en.config.Metrics.Addr); err != nil {
					logging.ErrorErr("metrics server", err, map[string]any{"addr": en.config.Metrics.Addr})
				}
			}()
		}

		if !jsonOutput {
			fmt.Printf("Running maintenance every %s. Press Ctrl+C to stop.\n", interval)
		}
		if err := en.runner.Schedule(ctx, en.steps(args), interval); err != nil {
			fmtErr("schedule: %v", err)
			en.close()
			os.Exit(1)
		}
	},
}

func init() {
	scheduleCmd.Flags().DurationVar(&scheduleInterval, "interval", 0, "time between passes (default maintenance.interval)")
	scheduleCmd.Flags().BoolVar(&scheduleMetrics, "serve-metrics", false, "serve Prometheus metrics on metrics.addr")
	rootCmd.AddCommand(scheduleCmd)
}
