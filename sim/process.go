package sim

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"

	"github.com/sarchlab/vsim/event"
)

// ProcessState is the lifecycle state of a process.
type ProcessState int

// The states a process goes through. A process starts Ready, alternates
// between Running and Waiting, and ends Finished.
const (
	Ready ProcessState = iota
	Running
	Waiting
	Finished
)

func (st ProcessState) String() string {
	switch st {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("ProcessState(%d)", int(st))
	}
}

// Body is the code of a process. The process handle is passed explicitly so
// the body can wait, query the time and finish.
type Body func(p *Process)

// ProcessOption configures a process at creation.
type ProcessOption func(p *Process)

// WithName sets the name of the process.
func WithName(name string) ProcessOption {
	return func(p *Process) {
		p.name = name
	}
}

// A Process is a cooperative unit of execution that can suspend in the middle
// of its body and later resume at the same point with its locals intact.
//
// Each process runs on its own goroutine. The scheduler and the process hand a
// baton back and forth through unbuffered channels: resume blocks until the
// process suspends or finishes, and the process blocks while suspended. At
// most one of them is running at any moment.
type Process struct {
	id      uint64
	name    string
	sched   *Scheduler
	body    Body
	forever bool

	state   ProcessState
	started bool
	killed  bool

	resumeCh chan struct{}
	yieldCh  chan struct{}
	killCh   chan struct{}
	exited   chan struct{}

	done *event.Event
}

func (s *Scheduler) newProcess(
	body Body,
	forever bool,
	opts []ProcessOption,
) *Process {
	p := &Process{
		id:       s.ids.Generate(),
		sched:    s,
		body:     body,
		forever:  forever,
		resumeCh: make(chan struct{}),
		yieldCh:  make(chan struct{}),
		killCh:   make(chan struct{}),
		exited:   make(chan struct{}),
	}
	p.name = fmt.Sprintf("process #%d", p.id)

	for _, opt := range opts {
		opt(p)
	}

	p.done = event.New(p.name + ".done")

	return p
}

// ID returns the identifier of the process, unique within its scheduler.
func (p *Process) ID() uint64 {
	return p.id
}

// Name returns the name of the process.
func (p *Process) Name() string {
	return p.name
}

// State returns the lifecycle state of the process.
func (p *Process) State() ProcessState {
	return p.state
}

// IsForever tells if the process re-enters its body until finished.
func (p *Process) IsForever() bool {
	return p.forever
}

// Scheduler returns the scheduler that owns the process.
func (p *Process) Scheduler() *Scheduler {
	return p.sched
}

// Now returns the current virtual time of the owning scheduler.
func (p *Process) Now() VTime {
	return p.sched.CurrentTime()
}

// Done returns an event that fires when the process finishes.
func (p *Process) Done() *event.Event {
	return p.done
}

// Finished tells if the process has finished.
func (p *Process) Finished() bool {
	return p.state == Finished
}

// Event makes a process usable as a wait source; it is the same as Done.
func (p *Process) Event() *event.Event {
	return p.done
}

// A completer is a source that fires once and then stays complete, such as a
// process or a task. Waiting on a complete one returns at once.
type completer interface {
	Finished() bool
}

func isComplete(src event.Source) bool {
	c, ok := src.(completer)
	return ok && c.Finished()
}

// Wait suspends the process until one of the given sources fires. With a
// single source this is the plain wait on an event. Waiting on a process or a
// task that already finished does not suspend.
func (p *Process) Wait(first event.Source, rest ...event.Source) {
	p.mustBeCurrent()

	if isComplete(first) {
		return
	}

	for _, src := range rest {
		if isComplete(src) {
			return
		}
	}

	if len(rest) == 0 {
		first.Event().BindOnce(p.resume)
	} else {
		event.Once(p.resume, first, rest...)
	}

	p.suspend()
}

// WaitAll suspends the process until every given source has fired at least
// once since the call. Finished processes and tasks count as fired.
func (p *Process) WaitAll(sources ...event.Source) {
	p.mustBeCurrent()

	pending := make([]event.Source, 0, len(sources))
	for _, src := range sources {
		if !isComplete(src) {
			pending = append(pending, src)
		}
	}

	if len(sources) > 0 && len(pending) == 0 {
		return
	}

	event.OnAll(p.resume, pending...)
	p.suspend()
}

// WaitAny suspends the process until the first of the given sources fires and
// returns the index of that source. The process stops listening to the other
// sources. A finished process or task is returned at once.
func (p *Process) WaitAny(sources ...event.Source) int {
	p.mustBeCurrent()

	for i, src := range sources {
		if isComplete(src) {
			return i
		}
	}

	fired := -1
	event.OnFirst(func(i int) {
		fired = i
		p.resume()
	}, sources...)
	p.suspend()

	return fired
}

// Delay suspends the process for d ticks of virtual time. A zero delay yields
// to the callbacks already scheduled for the current time.
func (p *Process) Delay(d VTime) {
	p.mustBeCurrent()

	p.sched.Schedule(p.resume, d)
	p.suspend()
}

// Finish terminates the process. It does not return.
func (p *Process) Finish() {
	p.mustBeCurrent()

	runtime.Goexit()
}

func (p *Process) mustBeCurrent() {
	if p.sched.current != p {
		panic(errors.Wrapf(ErrNotInProcess, "process %q", p.name))
	}
}

// resume hands the baton to the process and blocks until the process suspends
// or finishes. Resuming a process that is not ready or waiting is a no-op.
func (p *Process) resume() {
	if p.state != Ready && p.state != Waiting {
		return
	}

	s := p.sched
	prev := s.current
	s.current = p
	p.state = Running

	if !p.started {
		p.started = true
		s.invokeHook(HookPosProcessStart, p)

		go p.loop()
	} else {
		s.invokeHook(HookPosProcessResume, p)

		p.resumeCh <- struct{}{}
	}

	<-p.yieldCh
	s.current = prev
}

// suspend hands the baton back and blocks until resumed or killed.
func (p *Process) suspend() {
	p.state = Waiting
	p.sched.invokeHook(HookPosProcessSuspend, p)

	p.yieldCh <- struct{}{}

	select {
	case <-p.resumeCh:
	case <-p.killCh:
		p.killed = true
		runtime.Goexit()
	}
}

func (p *Process) loop() {
	defer p.exit()

	p.body(p)

	for p.forever {
		p.sched.Schedule(p.resume, 0)
		p.suspend()
		p.body(p)
	}
}

// exit runs when the process goroutine ends, whether the body returned,
// called Finish, panicked or was killed.
func (p *Process) exit() {
	s := p.sched

	if r := recover(); r != nil {
		s.fail(panicError(p.name, r))
	}

	p.state = Finished
	close(p.exited)

	if p.killed {
		return
	}

	s.safely(p.name, func() {
		s.invokeHook(HookPosProcessFinish, p)
		p.done.Trigger()
	})

	if !p.forever {
		s.Schedule(func() { s.release(p) }, 0)
	}

	p.yieldCh <- struct{}{}
}

// kill terminates a process that is not running. It blocks until the process
// goroutine is gone.
func (p *Process) kill() {
	switch {
	case p.state == Finished:
		return
	case !p.started:
		p.state = Finished
		return
	}

	close(p.killCh)
	<-p.exited
}
