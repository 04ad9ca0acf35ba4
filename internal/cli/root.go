package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/microsoft-scalar/pkg/color"
)

// Version is set at build time.
var Version = "dev"

var (
	jsonOutput bool
	noColor    bool
	rootCmd    = &cobra.Command{
		Use:   "scalar",
		Short: "Scalar - background maintenance for large git repositories",
		Long: `Scalar keeps the object store of a large git enlistment healthy.
It updates the commit-graph, cleans up loose objects and repacks
pack-files, either once or on a schedule, holding the object cache
lock while steps that need it run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtErr(format string, args ...any) {
	prefix := "scalar: "
	if color.Enabled() {
		prefix = color.Error("scalar:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
