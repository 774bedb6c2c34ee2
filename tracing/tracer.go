// Package tracing records what happens in a simulation: value changes of
// signals and wires, and triggers of named events.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/vsim/event"
	"github.com/sarchlab/vsim/signal"
	"github.com/sarchlab/vsim/sim"
	"github.com/sarchlab/vsim/sim/hooking"
)

// Kinds of records.
const (
	KindChange  = "change"
	KindTrigger = "trigger"
)

// A Record is one traced occurrence. Its fields are flat so that it can be
// stored by a datarecording.DataRecorder.
type Record struct {
	Time  uint64 `json:"time"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// A Tracer collects records.
type Tracer interface {
	Trace(r Record)
}

// CollectTrace lets the tracer collect records from a signal, a wire or an
// event. Unnamed events are not traced.
func CollectTrace(domain hooking.Hookable, tt sim.TimeTeller, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		h, ok := hook.(*traceHook)
		if ok && h.t == tracer {
			panic(fmt.Sprintf(
				"domain already has tracer %s", reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&traceHook{tt: tt, t: tracer})
}

// A traceHook turns hook invocations into records.
type traceHook struct {
	tt sim.TimeTeller
	t  Tracer
}

// Func calls the tracer when the hook is triggered.
func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case signal.HookPosValueChange:
		change := ctx.Item.(signal.Change)
		h.t.Trace(Record{
			Time:  uint64(h.tt.CurrentTime()),
			Kind:  KindChange,
			Name:  change.Name,
			Value: fmt.Sprint(change.New),
		})
	case event.HookPosTrigger:
		e := ctx.Item.(*event.Event)
		if e.Name() == "" {
			return
		}

		h.t.Trace(Record{
			Time: uint64(h.tt.CurrentTime()),
			Kind: KindTrigger,
			Name: e.Name(),
		})
	}
}

// Format renders a record as one line of the text trace.
func Format(r Record) string {
	if r.Kind == KindTrigger {
		return fmt.Sprintf("%d: %s triggered\n", r.Time, r.Name)
	}

	return fmt.Sprintf("%d: %s = %s\n", r.Time, r.Name, r.Value)
}
