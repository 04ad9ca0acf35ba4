package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DEVBOX10/microsoft-scalar/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Manage scalar configuration",
	Long: `Manage scalar configuration stored in .scalar/config.yaml.

Values from the file are overlaid by SCALAR_ environment variables,
for example SCALAR_LOGGING_LEVEL=debug.

Available commands:
  show              - Show current configuration
  set <key> <value> - Set a configuration value
  get <key>         - Get a configuration value`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		e, cfg := requireEnlistment()

		if jsonOutput {
			outputJSON(cfg)
			return
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmtErr("render config: %v", err)
			os.Exit(1)
		}
		fmt.Println("# Scalar Configuration")
		fmt.Printf("# Location: %s\n\n", e.ConfigPath())
		fmt.Print(string(data))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in .scalar/config.yaml.

Examples:
  scalar config set maintenance.interval 30m
  scalar config set maintenance.steps commit-graph,loose-objects
  scalar config set git.maintenance_builtin false
  scalar config set logging.level debug

Available keys:
  ` + strings.Join(config.Keys(), "\n  "),
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		e, _ := requireEnlistment()
		// Reload so environment overlays are not persisted.
		cfg, err := config.LoadFile(e.Root)
		if err != nil {
			fmtErr("load config: %v", err)
			os.Exit(1)
		}

		key := args[0]
		value := args[1]

		if err := cfg.Set(key, value); err != nil {
			fmtErr("set config: %v", err)
			os.Exit(1)
		}

		if err := config.Save(e.Root, cfg); err != nil {
			fmtErr("save config: %v", err)
			os.Exit(1)
		}

		fmt.Printf("Set %s = %s\n", key, value)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value.

Examples:
  scalar config get maintenance.interval
  scalar config get git.maintenance_builtin

Available keys:
  ` + strings.Join(config.Keys(), "\n  "),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, cfg := requireEnlistment()

		key := args[0]
		value, err := cfg.Get(key)
		if err != nil {
			fmtErr("get config: %v", err)
			os.Exit(1)
		}

		if value == "" {
			fmt.Printf("%s (not set)\n", key)
		} else {
			fmt.Println(value)
		}
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}
