package signal

import "cmp"

// A Wire is a cell with immediate assignment. A write that changes the value
// triggers the wire's events before Write returns.
type Wire[T any] struct {
	cell[T]
}

// NewWire creates a wire that reports edges in the natural order of T.
func NewWire[T cmp.Ordered](initial T) *Wire[T] {
	return NewWireComparable(initial).WithEdges(cmp.Less[T])
}

// NewWireComparable creates a wire whose value changes whenever a different
// value is written. Its edge events never fire.
func NewWireComparable[T comparable](initial T) *Wire[T] {
	return NewWireWithComparator(initial, differ[T])
}

// NewBoolWire creates a boolean wire with rising and falling edges.
func NewBoolWire(initial bool) *Wire[bool] {
	return NewWireComparable(initial).WithEdges(boolLess)
}

// NewWireWithComparator creates a wire for any type.
func NewWireWithComparator[T any](
	initial T,
	changed func(old, new T) bool,
) *Wire[T] {
	return &Wire[T]{cell: newCell(initial, changed)}
}

// Named sets the name of the wire and of its events.
func (w *Wire[T]) Named(name string) *Wire[T] {
	w.rename(name)
	return w
}

// WithEdges sets the order used to detect positive and negative edges.
func (w *Wire[T]) WithEdges(less func(a, b T) bool) *Wire[T] {
	w.less = less
	return w
}

// Write assigns v immediately.
func (w *Wire[T]) Write(v T) {
	w.apply(v)
}
