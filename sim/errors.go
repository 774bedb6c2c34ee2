package sim

import (
	"github.com/pkg/errors"
)

var (
	// ErrTimeOverflow is raised when a delay would move the clock past
	// MaxVTime.
	ErrTimeOverflow = errors.New("sim: scheduled time overflows VTime")

	// ErrNotInProcess is raised when a process-only operation, such as Wait,
	// is called from outside the process's own execution.
	ErrNotInProcess = errors.New("sim: operation requires the calling process to be running")

	// ErrRunning is raised when Reset or Run is called while the scheduler is
	// already running.
	ErrRunning = errors.New("sim: scheduler is running")

	// ErrTaskAborted is stored in a task that called Finish before returning
	// a value.
	ErrTaskAborted = errors.New("sim: task finished without a result")
)

// panicError turns a recovered panic value into an error with a stack trace.
func panicError(where string, r any) error {
	if err, ok := r.(error); ok {
		return errors.Wrapf(err, "sim: panic in %s", where)
	}

	return errors.Errorf("sim: panic in %s: %v", where, r)
}
