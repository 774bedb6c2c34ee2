package sim

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/vsim/event"
)

// A Task is a once-process that produces a value. A panic or an error raised by
// the task is captured in the task instead of failing the simulation run, so
// the caller can inspect it later.
type Task[T any] struct {
	proc     *Process
	value    T
	err      error
	finished bool
}

// Spawn starts fn as a once-process and returns the task that will hold its
// result.
func Spawn[T any](
	s *Scheduler,
	fn func(p *Process) (T, error),
	opts ...ProcessOption,
) *Task[T] {
	t := &Task[T]{}

	t.proc = s.Once(func(p *Process) {
		returned := false

		defer func() {
			if r := recover(); r != nil {
				t.err = panicError("task "+p.Name(), r)
			} else if !returned {
				t.err = errors.Wrapf(ErrTaskAborted, "task %q", p.Name())
			}

			t.finished = true
		}()

		t.value, t.err = fn(p)
		returned = true
	}, opts...)

	return t
}

// Process returns the process running the task.
func (t *Task[T]) Process() *Process {
	return t.proc
}

// Done returns an event that fires when the task finishes.
func (t *Task[T]) Done() *event.Event {
	return t.proc.Done()
}

// Event makes a task usable as a wait source.
func (t *Task[T]) Event() *event.Event {
	return t.proc.Done()
}

// Finished tells if the task has completed.
func (t *Task[T]) Finished() bool {
	return t.finished
}

// Result returns the value and the error of the task. It is only meaningful
// once the task is finished.
func (t *Task[T]) Result() (T, error) {
	return t.value, t.err
}

// Await suspends p until the task is finished and returns its result.
func (t *Task[T]) Await(p *Process) (T, error) {
	if !t.finished {
		p.Wait(t.Done())
	}

	return t.Result()
}
