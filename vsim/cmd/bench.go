package cmd

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/vsim/datarecording"
	"github.com/sarchlab/vsim/examples/inverterchain"
	"github.com/sarchlab/vsim/monitoring"
	"github.com/sarchlab/vsim/sim"
	"github.com/sarchlab/vsim/sim/simulation"
	"github.com/sarchlab/vsim/tracing"
)

const monitorTraceCapacity = 10000

// Summary reports what happened in a testbench run.
type Summary struct {
	Toggles  uint64        `json:"toggles"`
	Rises    int           `json:"rises"`
	WallTime time.Duration `json:"wall_time"`
}

// runBench builds the testbench described by cfg, runs it and writes the text
// trace into traceOut when it is not nil.
func runBench(
	ctx context.Context,
	cfg Config,
	traceOut io.Writer,
	logger logrus.FieldLogger,
) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}

	s := sim.NewScheduler()
	defer s.Reset()

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		s.AcceptHook(sim.NewProcessLogger(logger))
	}

	simu := simulation.NewSimulation(s)
	chain := inverterchain.MakeBuilder().
		WithSimulation(simu).
		WithLength(cfg.Length).
		WithGateDelay(sim.VTime(cfg.GateDelay)).
		WithClockHalfPeriod(sim.VTime(cfg.HalfPeriod)).
		WithInitialDelay(sim.VTime(cfg.InitialDelay)).
		Build(cfg.Name)

	if cfg.LoadState != "" {
		if err := simu.LoadFile(cfg.LoadState); err != nil {
			return Summary{}, err
		}

		logger.WithField("file", cfg.LoadState).Info("state loaded")
	}

	var text *tracing.TextTracer
	if traceOut != nil {
		text = tracing.NewTextTracer(traceOut)
		chain.Trace(text)
	}

	if cfg.Record != "" {
		stop, err := attachRecorder(chain, cfg.Record, logger)
		if err != nil {
			return Summary{}, err
		}

		defer stop()
	}

	if cfg.Monitor {
		stop, err := attachMonitor(simu, chain, cfg)
		if err != nil {
			return Summary{}, err
		}

		defer stop()
	}

	start := time.Now()

	var err error
	if cfg.Horizon > 0 {
		err = s.RunUntil(sim.VTime(cfg.Horizon))
	} else {
		err = s.RunFor(cfg.WallTime)
	}

	summary := Summary{
		Toggles:  chain.Clock.Toggles(),
		Rises:    chain.Rises.Read(),
		WallTime: time.Since(start),
	}

	if err != nil {
		return summary, errors.Wrap(err, "simulation failed")
	}

	if text != nil && text.Err() != nil {
		return summary, errors.Wrap(text.Err(), "write trace")
	}

	if cfg.SaveState != "" {
		if err := simu.SaveFile(cfg.SaveState); err != nil {
			return summary, err
		}

		logger.WithField("file", cfg.SaveState).Info("state saved")
	}

	return summary, nil
}

func attachRecorder(
	chain *inverterchain.Chain,
	path string,
	logger logrus.FieldLogger,
) (func(), error) {
	recorder, err := datarecording.New(path)
	if err != nil {
		return nil, err
	}

	tracer, err := tracing.NewDBTracer(recorder, logger)
	if err != nil {
		return nil, err
	}

	chain.Trace(tracer)

	return func() {
		if err := tracer.Terminate(); err != nil {
			logger.WithError(err).Error("flush trace")
		}

		if err := recorder.Close(); err != nil {
			logger.WithError(err).Error("close recorder")
		}
	}, nil
}

func attachMonitor(
	simu *simulation.Simulation,
	chain *inverterchain.Chain,
	cfg Config,
) (func(), error) {
	trace := tracing.NewMemoryTracer(monitorTraceCapacity)
	chain.Trace(trace)

	m := monitoring.NewMonitor(simu).
		WithPortNumber(cfg.MonitorPort).
		WithBrowser(cfg.OpenBrowser).
		WithTracer(trace)

	if cfg.Horizon > 0 {
		m.TrackTime(sim.VTime(cfg.Horizon))
	}

	if _, err := m.StartServer(); err != nil {
		return nil, err
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_ = m.StopServer(ctx)
	}, nil
}
