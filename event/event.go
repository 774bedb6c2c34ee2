// Package event provides the synchronization primitive of the kernel: an
// occurrence that can be triggered and that notifies persistent subscribers and
// one-shot waiters synchronously.
package event

import (
	"github.com/sarchlab/vsim/sim/hooking"
)

// Callback is a piece of work invoked when an event fires.
type Callback func()

// SubscriberID identifies a persistent subscriber of an event.
type SubscriberID uint64

// WaiterID identifies a cancellable one-shot waiter of an event.
type WaiterID uint64

// HookPosTrigger is the hook position invoked right before an event notifies
// its subscribers. The hook item is the event itself.
var HookPosTrigger = &hooking.HookPos{Name: "EventTrigger"}

// A Source is anything that exposes an event that fires when something
// happens, such as an event, a signal, or a task.
type Source interface {
	Event() *Event
}

// A Triggerer can be fired.
type Triggerer interface {
	Trigger()
}

type subscriber struct {
	id SubscriberID
	cb Callback
}

type waiter struct {
	id          WaiterID
	cb          Callback
	cancellable bool
	cancelled   bool
}

// An Event is a triggerable occurrence.
//
// Persistent subscribers run on every trigger. One-shot waiters run on the
// next trigger only. Waiters registered while the event is being triggered
// are deferred to the following trigger.
type Event struct {
	*hooking.HookableBase

	name        string
	subscribers []subscriber
	waiters     []*waiter
	cancellable map[WaiterID]*waiter
	nextSubID   SubscriberID
	nextWaiter  WaiterID
}

// New creates an event. The name is optional and only used for tracing.
func New(name string) *Event {
	return &Event{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
	}
}

// Name returns the name of the event.
func (e *Event) Name() string {
	return e.name
}

// SetName changes the name of the event.
func (e *Event) SetName(name string) {
	e.name = name
}

// Event returns the event itself, so that an Event is a Source.
func (e *Event) Event() *Event {
	return e
}

// Bind registers a persistent subscriber.
func (e *Event) Bind(cb Callback) SubscriberID {
	e.nextSubID++
	e.subscribers = append(e.subscribers, subscriber{id: e.nextSubID, cb: cb})

	return e.nextSubID
}

// Unbind removes a persistent subscriber. It returns false if the subscriber
// is not bound.
func (e *Event) Unbind(id SubscriberID) bool {
	for i, s := range e.subscribers {
		if s.id == id {
			e.subscribers = append(e.subscribers[:i:i], e.subscribers[i+1:]...)
			return true
		}
	}

	return false
}

// BindOnce registers a waiter that is invoked on the next trigger only.
func (e *Event) BindOnce(cb Callback) {
	e.addWaiter(cb, false)
}

// BindCancellable registers a one-shot waiter that can be removed with
// CancelWait before it fires.
func (e *Event) BindCancellable(cb Callback) WaiterID {
	return e.addWaiter(cb, true).id
}

func (e *Event) addWaiter(cb Callback, cancellable bool) *waiter {
	e.nextWaiter++
	w := &waiter{id: e.nextWaiter, cb: cb, cancellable: cancellable}
	e.waiters = append(e.waiters, w)

	if cancellable {
		if e.cancellable == nil {
			e.cancellable = make(map[WaiterID]*waiter)
		}

		e.cancellable[w.id] = w
	}

	return w
}

// CancelWait removes a cancellable waiter. Cancelling a waiter that already
// fired, or that does not exist, is a no-op and returns false.
//
// A waiter that belongs to the batch currently being notified by Trigger, but
// has not been invoked yet, is cancelled as well.
func (e *Event) CancelWait(id WaiterID) bool {
	w, ok := e.cancellable[id]
	if !ok {
		return false
	}

	delete(e.cancellable, id)
	w.cancelled = true

	for i, pending := range e.waiters {
		if pending == w {
			e.waiters = append(e.waiters[:i:i], e.waiters[i+1:]...)
			break
		}
	}

	return true
}

// CancelAllWaits removes every cancellable waiter. Plain one-shot waiters are
// kept.
func (e *Event) CancelAllWaits() {
	for id, w := range e.cancellable {
		w.cancelled = true
		delete(e.cancellable, id)
	}

	kept := e.waiters[:0:0]

	for _, w := range e.waiters {
		if !w.cancelled {
			kept = append(kept, w)
		}
	}

	e.waiters = kept
}

// NumSubscribers returns the number of persistent subscribers.
func (e *Event) NumSubscribers() int {
	return len(e.subscribers)
}

// NumWaiters returns the number of pending one-shot waiters.
func (e *Event) NumWaiters() int {
	return len(e.waiters)
}

// Trigger invokes all persistent subscribers in registration order, followed by
// the one-shot waiters pending at the time of the call.
func (e *Event) Trigger() {
	if e.HookableBase != nil && e.NumHooks() > 0 {
		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    HookPosTrigger,
			Item:   e,
		})
	}

	subscribers := e.subscribers
	for _, s := range subscribers {
		s.cb()
	}

	pending := e.waiters
	e.waiters = nil

	for _, w := range pending {
		if w.cancelled {
			continue
		}

		if w.cancellable {
			delete(e.cancellable, w.id)
		}

		w.cb()
	}
}
