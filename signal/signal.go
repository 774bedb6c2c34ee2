package signal

import (
	"cmp"

	"github.com/sarchlab/vsim/sim"
)

// A Signal is a cell with non-blocking assignment: a write is scheduled and
// takes effect when the scheduler reaches it, so every reader in the current
// step still observes the old value.
type Signal[T any] struct {
	cell[T]

	sched sim.CallbackScheduler
}

// New creates a signal that reports edges in the natural order of T: a change
// to a greater value is a positive edge, to a smaller one a negative edge.
func New[T cmp.Ordered](s sim.CallbackScheduler, initial T) *Signal[T] {
	return NewComparable(s, initial).WithEdges(cmp.Less[T])
}

// NewComparable creates a signal whose value changes whenever a different
// value is written. It has no order, so its edge events never fire.
func NewComparable[T comparable](s sim.CallbackScheduler, initial T) *Signal[T] {
	return NewWithComparator(s, initial, differ[T])
}

// NewBool creates a boolean signal with a rising edge from false to true and a
// falling edge from true to false.
func NewBool(s sim.CallbackScheduler, initial bool) *Signal[bool] {
	return NewComparable(s, initial).WithEdges(boolLess)
}

// NewWithComparator creates a signal for any type. The value changes when
// changed(old, new) returns true.
func NewWithComparator[T any](
	s sim.CallbackScheduler,
	initial T,
	changed func(old, new T) bool,
) *Signal[T] {
	return &Signal[T]{
		cell:  newCell(initial, changed),
		sched: s,
	}
}

// Named sets the name of the signal and of its events.
func (sig *Signal[T]) Named(name string) *Signal[T] {
	sig.rename(name)
	return sig
}

// WithEdges sets the order used to detect positive and negative edges.
func (sig *Signal[T]) WithEdges(less func(a, b T) bool) *Signal[T] {
	sig.less = less
	return sig
}

// Write schedules v to be assigned on the next zero-delay cycle.
func (sig *Signal[T]) Write(v T) {
	sig.WriteAfter(v, 0)
}

// WriteAfter schedules v to be assigned delay ticks from now.
func (sig *Signal[T]) WriteAfter(v T, delay sim.VTime) {
	sig.sched.Schedule(func() { sig.apply(v) }, delay)
}

// After returns a writer whose writes land delay ticks after they are made.
func (sig *Signal[T]) After(delay sim.VTime) Writer[T] {
	return delayedWriter[T]{sig: sig, delay: delay}
}

type delayedWriter[T any] struct {
	sig   *Signal[T]
	delay sim.VTime
}

func (w delayedWriter[T]) Write(v T) {
	w.sig.WriteAfter(v, w.delay)
}
