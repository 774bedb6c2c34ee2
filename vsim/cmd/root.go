// Package cmd provides the command-line interface of vsim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vsim",
	Short: "vsim runs discrete-event hardware simulations.",
	Long: `vsim runs the inverter chain testbench on a discrete-event ` +
		`simulation kernel. Options come from a YAML config file, ` +
		`VSIM_* environment variables, and flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}

		logrus.SetLevel(level)

		return nil
	},
}

func init() {
	loadDotEnv()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level",
		envOr("VSIM_LOG_LEVEL", "info"),
		"Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config",
		envOr("VSIM_CONFIG", ""),
		"Path to a YAML config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
}

// loadDotEnv reads a .env file from the working directory, if any. Variables
// already set in the environment win.
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("cannot read .env")
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
