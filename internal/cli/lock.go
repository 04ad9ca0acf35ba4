package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect the object cache lock",
}

var lockStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the object cache lock is held",
	Run: func(cmd *cobra.Command, args []string) {
		e, cfg := requireEnlistment()

		mgr := newLockManager(e, cfg)
		state, rec, err := mgr.Status()
		if err != nil {
			fmtErr("check lock status: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"path":  mgr.Path(),
				"state": state,
				"lock":  rec,
			})
			return
		}

		fmt.Printf("Object cache lock: %s\n", mgr.Path())
		fmt.Printf("Lock state: %s\n", state)
		if state == model.LockStateHeld && rec != nil {
			fmt.Printf("  Holder: pid %d on %s\n", rec.PID, rec.Host)
			fmt.Printf("  Purpose: %s\n", rec.Purpose)
			fmt.Printf("  Acquired: %s (%s ago)\n", rec.AcquiredAt.Format(time.RFC3339),
				rec.Age(time.Now()).Round(time.Second))
		}
	},
}

func init() {
	lockCmd.AddCommand(lockStatusCmd)
	rootCmd.AddCommand(lockCmd)
}
