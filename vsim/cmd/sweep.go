package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/vsim/engines"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run copies of the testbench in parallel and compare their traces.",
	Long: "`sweep` runs the same testbench several times on a pool of " +
		"goroutines. Every copy owns its scheduler, so all traces must be " +
		"identical.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}

		copies, _ := cmd.Flags().GetInt("copies")
		workers, _ := cmd.Flags().GetInt("workers")

		pool := engines.NewPool(workers).WithLogger(logrus.StandardLogger())

		n, err := sweep(cmd.Context(), pool, cfg, copies)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"%d runs on %d workers, %d trace bytes each, all identical\n",
			copies, pool.Workers(), n)

		return nil
	},
}

func init() {
	addBenchFlags(sweepCmd)

	sweepCmd.Flags().Int("copies", 8, "Number of runs")
	sweepCmd.Flags().Int("workers", 0, "Number of workers, 0 for one per CPU")
}

// sweep runs copies of the testbench and returns the length of the trace they
// all produced. Outputs that cannot be shared between copies are disabled.
// A wall-clock cap would make the traces differ, so a horizon is required.
func sweep(
	ctx context.Context,
	pool *engines.Pool,
	cfg Config,
	copies int,
) (int, error) {
	if copies < 1 {
		return 0, errors.Errorf("copies %d must be at least 1", copies)
	}

	if cfg.Horizon == 0 {
		return 0, errors.New("sweep needs a virtual horizon")
	}

	cfg.Record = ""
	cfg.SaveState = ""
	cfg.Monitor = false

	traces, err := engines.Map(ctx, pool, copies,
		func(ctx context.Context, i int) ([]byte, error) {
			buf := new(bytes.Buffer)
			logger := logrus.WithField("copy", i)

			if _, err := runBench(ctx, cfg, buf, logger); err != nil {
				return nil, err
			}

			return buf.Bytes(), nil
		})
	if err != nil {
		return 0, err
	}

	for i, trace := range traces[1:] {
		if !bytes.Equal(trace, traces[0]) {
			return 0, errors.Errorf("trace of run %d differs from run 0", i+1)
		}
	}

	return len(traces[0]), nil
}
