package sim

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sarchlab/vsim/event"
	"github.com/sarchlab/vsim/sim/hooking"
	"github.com/sarchlab/vsim/sim/id"
)

// A Scheduler owns the virtual clock, the queue of pending callbacks and the
// processes of one simulation.
//
// All kernel state is mutated by exactly one goroutine at a time. Processes
// run on their own goroutines, but control is handed over synchronously, so a
// process only runs while whoever resumed it is blocked.
type Scheduler struct {
	*hooking.HookableBase

	timeLock sync.RWMutex
	now      VTime
	seq      uint64
	queue    *callbackQueue

	isPaused      bool
	isPausedLock  sync.Mutex
	pauseLock     sync.Mutex
	singleRunLock sync.Mutex

	running bool
	err     error

	ids     id.Generator
	current *Process
	forever []*Process
	once    map[*Process]struct{}
}

// NewScheduler creates a Scheduler at time 0 with an empty queue.
func NewScheduler() *Scheduler {
	return &Scheduler{
		HookableBase: hooking.NewHookableBase(),
		queue:        newCallbackQueue(),
		ids:          id.NewGenerator(),
		once:         make(map[*Process]struct{}),
	}
}

// Schedule registers cb to run delay ticks after the current time. Callbacks
// scheduled for the same time run in the order they were scheduled.
func (s *Scheduler) Schedule(cb event.Callback, delay VTime) {
	now := s.readNow()
	if delay > MaxVTime-now {
		panic(errors.Wrapf(ErrTimeOverflow, "now %d, delay %d", now, delay))
	}

	s.seq++
	s.queue.Push(&scheduledCallback{
		time: now + delay,
		seq:  s.seq,
		cb:   cb,
	})
}

// ScheduleTrigger schedules t to be triggered delay ticks from now.
func (s *Scheduler) ScheduleTrigger(t event.Triggerer, delay VTime) {
	s.Schedule(t.Trigger, delay)
}

func (s *Scheduler) readNow() VTime {
	s.timeLock.RLock()
	t := s.now
	s.timeLock.RUnlock()

	return t
}

func (s *Scheduler) writeNow(t VTime) {
	s.timeLock.Lock()
	s.now = t
	s.timeLock.Unlock()
}

// CurrentTime returns the time of the callback being processed, or of the last
// one processed.
func (s *Scheduler) CurrentTime() VTime {
	return s.readNow()
}

// Pending returns the number of callbacks waiting in the queue.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}

// CurrentProcess returns the process that is executing, or nil when the
// caller is not running inside a process.
func (s *Scheduler) CurrentProcess() *Process {
	return s.current
}

// NumProcesses returns the number of processes owned by the scheduler that
// have not been released yet.
func (s *Scheduler) NumProcesses() int {
	return len(s.forever) + len(s.once)
}

// Run processes callbacks until the queue is empty.
func (s *Scheduler) Run() error {
	return s.run(func(VTime) bool { return false })
}

// RunUntil processes callbacks whose time is strictly earlier than maxTime.
func (s *Scheduler) RunUntil(maxTime VTime) error {
	return s.run(func(next VTime) bool { return next >= maxTime })
}

// RunFor processes callbacks until the queue is empty or until d of wall-clock
// time has elapsed, whichever comes first.
func (s *Scheduler) RunFor(d time.Duration) error {
	deadline := time.Now().Add(d)

	return s.run(func(VTime) bool { return !time.Now().Before(deadline) })
}

// run dispatches callbacks in (time, seq) order. Because the queue head is
// re-examined after every callback, work scheduled for the current time during
// the batch is drained before the clock advances.
//
// When the loop ends the clock, the sequence counter and the queue are reset.
func (s *Scheduler) run(stop func(next VTime) bool) error {
	if s.running {
		panic(errors.WithStack(ErrRunning))
	}

	s.singleRunLock.Lock()
	defer s.singleRunLock.Unlock()

	s.running = true
	defer s.endRun()

	if s.err != nil {
		return s.err
	}

	for s.queue.Len() > 0 {
		next := s.queue.Peek()
		if stop(next.time) {
			break
		}

		s.queue.Pop()

		if next.time != s.readNow() {
			s.writeNow(next.time)
		}

		s.dispatch(next)

		if s.err != nil {
			return s.err
		}
	}

	return nil
}

func (s *Scheduler) dispatch(c *scheduledCallback) {
	s.pauseLock.Lock()
	defer s.pauseLock.Unlock()

	info := CallbackInfo{Time: c.time, Seq: c.seq}

	s.invokeHook(HookPosBeforeCallback, info)
	s.safely("callback", c.cb)
	s.invokeHook(HookPosAfterCallback, info)
}

func (s *Scheduler) endRun() {
	s.running = false
	s.err = nil
	s.seq = 0
	s.queue.Clear()
	s.writeNow(0)
}

// safely runs f and records a panic as the failure of the run.
func (s *Scheduler) safely(where string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(panicError(where, r))
		}
	}()

	f()
}

// fail records the first error of a run.
func (s *Scheduler) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Scheduler) invokeHook(pos *hooking.HookPos, item any) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    pos,
		Item:   item,
	})
}

// Reset clears the queue, the clock, the sequence counter and terminates every
// process owned by the scheduler.
func (s *Scheduler) Reset() {
	if s.running || s.current != nil {
		panic(errors.WithStack(ErrRunning))
	}

	s.queue.Clear()
	s.seq = 0
	s.err = nil
	s.writeNow(0)

	for _, p := range s.forever {
		p.kill()
	}

	for p := range s.once {
		p.kill()
	}

	s.forever = nil
	s.once = make(map[*Process]struct{})
}

// Pause prevents the Scheduler from dispatching more callbacks until Continue
// is called. It is meant to be called from another goroutine.
func (s *Scheduler) Pause() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if s.isPaused {
		return
	}

	s.pauseLock.Lock()
	s.isPaused = true
}

// Continue allows the Scheduler to dispatch callbacks again.
func (s *Scheduler) Continue() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if !s.isPaused {
		return
	}

	s.pauseLock.Unlock()
	s.isPaused = false
}

// IsPaused tells if the scheduler is paused.
func (s *Scheduler) IsPaused() bool {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	return s.isPaused
}

// Forever creates a process whose body runs for the whole lifetime of the
// scheduler. Its first activation is scheduled at the current time. Each time
// the body returns it is re-entered on the next zero-delay cycle, until the
// body calls Finish.
func (s *Scheduler) Forever(body Body, opts ...ProcessOption) *Process {
	p := s.newProcess(body, true, opts)
	s.forever = append(s.forever, p)
	s.Schedule(p.resume, 0)

	return p
}

// Once creates a process that runs its body a single time. The body starts
// immediately and runs until it first suspends or returns. Once finished, the
// process releases itself on the next zero-delay cycle.
func (s *Scheduler) Once(body Body, opts ...ProcessOption) *Process {
	p := s.newProcess(body, false, opts)
	s.once[p] = struct{}{}
	p.resume()

	return p
}

func (s *Scheduler) release(p *Process) {
	delete(s.once, p)
}
