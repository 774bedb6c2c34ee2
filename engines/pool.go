// Package engines runs independent simulations concurrently. Each job owns its
// scheduler, so jobs never share kernel state.
package engines

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A Job is an independent unit of work, typically building and running one
// simulation.
type Job func(ctx context.Context) error

// A Pool runs jobs on a fixed number of worker goroutines.
type Pool struct {
	workers int
	logger  logrus.FieldLogger
}

// NewPool creates a pool with the given number of workers. Zero or a negative
// number uses one worker per CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pool{
		workers: workers,
		logger:  logrus.StandardLogger(),
	}
}

// WithLogger sets the logger that reports job progress.
func (p *Pool) WithLogger(logger logrus.FieldLogger) *Pool {
	p.logger = logger
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes every job and returns one error per job, indexed like jobs.
// Jobs that have not started when ctx is done are skipped and report the
// context error. A panicking job reports the panic as its error.
func (p *Pool) Run(ctx context.Context, jobs []Job) []error {
	errs := make([]error, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < p.workers; w++ {
		wg.Add(1)

		go func(worker int) {
			defer wg.Done()

			for i := range indexes {
				errs[i] = p.runJob(ctx, worker, i, jobs[i])
			}
		}(w)
	}

	for i := range jobs {
		if ctx.Err() != nil {
			errs[i] = errors.Wrapf(ctx.Err(), "job %d skipped", i)
			continue
		}

		select {
		case indexes <- i:
		case <-ctx.Done():
			errs[i] = errors.Wrapf(ctx.Err(), "job %d skipped", i)
		}
	}

	close(indexes)
	wg.Wait()

	return errs
}

func (p *Pool) runJob(ctx context.Context, worker, i int, job Job) (err error) {
	log := p.logger.WithFields(logrus.Fields{"worker": worker, "job": i})

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("job %d panicked: %v", i, r)
		}

		if err != nil {
			log.WithError(err).Warn("job failed")
		} else {
			log.Debug("job done")
		}
	}()

	log.Debug("job started")

	if err := job(ctx); err != nil {
		return errors.Wrapf(err, "job %d", i)
	}

	return nil
}

// FirstError returns the error of the lowest-indexed failing job, or nil.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

// Map runs fn for every index in [0, n) on the pool and collects the results
// in index order.
func Map[T any](
	ctx context.Context,
	p *Pool,
	n int,
	fn func(ctx context.Context, i int) (T, error),
) ([]T, error) {
	results := make([]T, n)
	jobs := make([]Job, n)

	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			v, err := fn(ctx, i)
			if err != nil {
				return err
			}

			results[i] = v

			return nil
		}
	}

	if err := FirstError(p.Run(ctx, jobs)); err != nil {
		return nil, err
	}

	return results, nil
}
