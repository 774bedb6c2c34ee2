package signal

import "github.com/sarchlab/vsim/event"

// A Const is a read-only value that exposes the Reader interface. Its event
// never fires.
type Const[T any] struct {
	value T
	never *event.Event
}

// NewConst creates a constant signal.
func NewConst[T any](v T) *Const[T] {
	return &Const[T]{value: v, never: event.New("")}
}

// Read returns the constant value.
func (c *Const[T]) Read() T {
	return c.value
}

// Event returns an event that is never triggered.
func (c *Const[T]) Event() *event.Event {
	return c.never
}
