package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/microsoft-scalar/pkg/metrics"
)

var (
	metricsAddr string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Start Prometheus metrics server",
	Long: `Start a Prometheus metrics server for scalar maintenance.

This exposes a /metrics endpoint with Prometheus-format metrics about:
- Step runs by area and result
- Step durations and logged errors
- Time spent waiting for the object cache lock

The metrics server runs in the foreground until interrupted. Step
metrics are only recorded by the process running the steps; use
'scalar schedule --serve-metrics' to serve them next to the schedule.

Examples:
  scalar metrics                    # Start on default port :2112
  scalar metrics --addr :9090       # Start on custom port`,
	Run: func(cmd *cobra.Command, args []string) {
		addr := metricsAddr
		if addr == "" {
			_, cfg := requireEnlistment()
			addr = cfg.Metrics.Addr
		}

		fmt.Printf("Starting Prometheus metrics server on %s\n", addr)
		fmt.Println("Available metrics:")
		fmt.Println("  - scalar_maintenance_step_runs_total")
		fmt.Println("  - scalar_maintenance_step_duration_seconds")
		fmt.Println("  - scalar_maintenance_step_errors_total")
		fmt.Println("  - scalar_object_cache_lock_wait_seconds")
		fmt.Println()
		fmt.Printf("Metrics available at http://%s/metrics\n", addr)
		fmt.Println("Press Ctrl+C to stop")

		if err := metrics.StartServer(addr); err != nil {
			fmtErr("metrics server: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsAddr, "addr", "a", "", "address to listen on (default metrics.addr)")
	rootCmd.AddCommand(metricsCmd)
}
