// Package commands implements regionctl's CLI commands.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marmos91/regionstore/cmd/regionctl/cmdutil"
	"github.com/marmos91/regionstore/internal/logger"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "regionctl",
	Short: "regionctl - inspect and edit region storage engine files",
	Long: `regionctl is a command-line tool for inspecting, reading, writing, and
repairing region files (r.X.Z.mca) and their overflow files (c.X.Z.mcc).

Use "regionctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.Dir, _ = cmd.Flags().GetString("dir")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.Metrics, _ = cmd.Flags().GetBool("metrics")

		level := "INFO"
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			level = "DEBUG"
		}
		_ = logger.Init(logger.Config{Level: level, Format: "text", Output: "stderr"})
	},
}

// Execute adds all child commands to the root command and parses flags.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	v := viper.New()
	cmdutil.BindViper(v)

	rootCmd.PersistentFlags().StringP("dir", "d", ".", "Region directory (holds r.X.Z.mca/c.X.Z.mcc files)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (only table output is implemented; the value is not read)")
	rootCmd.PersistentFlags().Bool("metrics", false, "Enable Prometheus metrics collection for this invocation")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(gcStatsCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("regionctl %s (commit %s, built %s)\n", Version, Commit, Date)
		return nil
	},
}
