// Package signal provides typed value cells whose changes are observable as
// events: signals with scheduled (non-blocking) assignment, wires with
// immediate assignment, and constant signals that never change.
package signal

import (
	"github.com/sarchlab/vsim/event"
	"github.com/sarchlab/vsim/sim/hooking"
	"github.com/sarchlab/vsim/sim/stateful"
)

// HookPosValueChange fires after a cell takes a new value and before its events
// are triggered. The hook item is a Change.
var HookPosValueChange = &hooking.HookPos{Name: "ValueChange"}

// A Change describes a value change of a named cell.
type Change struct {
	Name string
	Old  any
	New  any
}

// A Writer accepts values.
type Writer[T any] interface {
	Write(v T)
}

// A Reader exposes the current value of a cell and the event raised when it
// changes.
type Reader[T any] interface {
	event.Source
	Read() T
}

// cell holds the value and the events shared by signals and wires.
type cell[T any] struct {
	*hooking.HookableBase

	name    string
	value   T
	changed func(old, new T) bool
	less    func(a, b T) bool

	onChange *event.Event
	posEdge  *event.Event
	negEdge  *event.Event
}

func newCell[T any](initial T, changed func(old, new T) bool) cell[T] {
	return cell[T]{
		HookableBase: hooking.NewHookableBase(),
		value:        initial,
		changed:      changed,
		onChange:     event.New(""),
		posEdge:      event.New(""),
		negEdge:      event.New(""),
	}
}

func (c *cell[T]) rename(name string) {
	c.name = name
	c.onChange.SetName(name)
	c.posEdge.SetName(name + ".posedge")
	c.negEdge.SetName(name + ".negedge")
}

// Name returns the name of the cell.
func (c *cell[T]) Name() string {
	return c.name
}

// Read returns the current value.
func (c *cell[T]) Read() T {
	return c.value
}

// Event returns the event triggered on every value change.
func (c *cell[T]) Event() *event.Event {
	return c.onChange
}

// PosEdge returns the event triggered when the value increases.
func (c *cell[T]) PosEdge() *event.Event {
	return c.posEdge
}

// NegEdge returns the event triggered when the value decreases.
func (c *cell[T]) NegEdge() *event.Event {
	return c.negEdge
}

// apply assigns v if it differs from the current value, then triggers the
// change event and at most one edge event.
func (c *cell[T]) apply(v T) {
	if !c.changed(c.value, v) {
		return
	}

	old := c.value
	c.value = v

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosValueChange,
			Item:   Change{Name: c.name, Old: old, New: v},
		})
	}

	c.onChange.Trigger()

	if c.less == nil {
		return
	}

	switch {
	case c.less(old, v):
		c.posEdge.Trigger()
	case c.less(v, old):
		c.negEdge.Trigger()
	}
}

// SaveState returns the current value.
func (c *cell[T]) SaveState() any {
	return c.value
}

// LoadState restores the value without triggering any event.
func (c *cell[T]) LoadState(decode stateful.Decoder) error {
	var v T

	if err := decode(&v); err != nil {
		return err
	}

	c.value = v

	return nil
}

func differ[T comparable](a, b T) bool {
	return a != b
}

func boolLess(a, b bool) bool {
	return !a && b
}
