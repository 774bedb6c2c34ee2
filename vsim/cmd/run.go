package cmd

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the inverter chain testbench once.",
	Long: "`run` builds the inverter chain, runs it up to the horizon or the " +
		"wall-clock cap, and writes the value changes as a text trace.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}

		out, closeOut, err := openTrace(cfg.Trace, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeOut()

		summary, err := runBench(cmd.Context(), cfg, out, logrus.StandardLogger())
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"toggles":   summary.Toggles,
			"rises":     summary.Rises,
			"wall_time": summary.WallTime,
		}).Info("simulation completed")

		return nil
	},
}

func init() {
	addBenchFlags(runCmd)

	runCmd.Flags().String("trace", "", "Trace output: - for stdout, a file, or none")
	runCmd.Flags().String("record", "", "Record the trace into <record>.sqlite3")
	runCmd.Flags().String("save-state", "", "Save the final state into a file")
	runCmd.Flags().String("load-state", "", "Load the initial state from a file")
	runCmd.Flags().Bool("monitor", false, "Serve the monitoring page")
	runCmd.Flags().Int("monitor-port", 0, "Port of the monitoring server")
	runCmd.Flags().Bool("open-browser", false, "Open the monitoring page")
}

func addBenchFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Name of the chain")
	cmd.Flags().Int("length", 0, "Number of inverters")
	cmd.Flags().Uint64("gate-delay", 0, "Delay of each inverter in ticks")
	cmd.Flags().Uint64("half-period", 0, "Half period of the clock in ticks")
	cmd.Flags().Uint64("horizon", 0, "Virtual time to stop at")
	cmd.Flags().Duration("wall-time", 0, "Wall-clock cap when no horizon is set")
}

// configFromFlags loads the config file and applies the flags the user set.
func configFromFlags(cmd *cobra.Command) (Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	stringFlags := map[string]*string{
		"name":       &cfg.Name,
		"trace":      &cfg.Trace,
		"record":     &cfg.Record,
		"save-state": &cfg.SaveState,
		"load-state": &cfg.LoadState,
	}

	for name, dst := range stringFlags {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	uintFlags := map[string]*uint64{
		"gate-delay":  &cfg.GateDelay,
		"half-period": &cfg.HalfPeriod,
		"horizon":     &cfg.Horizon,
	}

	for name, dst := range uintFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetUint64(name)
		}
	}

	if flags.Changed("length") {
		cfg.Length, _ = flags.GetInt("length")
	}

	if flags.Changed("wall-time") {
		cfg.WallTime, _ = flags.GetDuration("wall-time")
	}

	if flags.Lookup("monitor") != nil {
		if flags.Changed("monitor") {
			cfg.Monitor, _ = flags.GetBool("monitor")
		}

		if flags.Changed("monitor-port") {
			cfg.MonitorPort, _ = flags.GetInt("monitor-port")
		}

		if flags.Changed("open-browser") {
			cfg.OpenBrowser, _ = flags.GetBool("open-browser")
		}
	}

	return cfg, cfg.Validate()
}

// openTrace returns the writer the text trace goes to. An empty target
// disables the trace.
func openTrace(target string, stdout io.Writer) (io.Writer, func(), error) {
	switch target {
	case "":
		return nil, func() {}, nil
	case "-":
		return stdout, func() {}, nil
	}

	f, err := os.Create(target)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create trace file")
	}

	return f, func() {
		if err := f.Close(); err != nil {
			logrus.WithError(err).Error("close trace file")
		}
	}, nil
}
