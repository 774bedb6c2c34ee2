package signal_test

import (
	"fmt"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vsim/event"
	"github.com/sarchlab/vsim/signal"
	"github.com/sarchlab/vsim/sim"
	"github.com/sarchlab/vsim/sim/hooking"
	"github.com/sarchlab/vsim/sim/stateful"
)

var _ = Describe("Signal", func() {
	var (
		s *sim.Scheduler
	)

	BeforeEach(func() {
		s = sim.NewScheduler()
	})

	AfterEach(func() {
		s.Reset()
	})

	It("should apply writes on the next zero-delay cycle", func() {
		sig := signal.New(s, 0)
		var seen []int

		s.Schedule(func() {
			sig.Write(1)
			seen = append(seen, sig.Read())
		}, 2)
		s.Schedule(func() { seen = append(seen, sig.Read()) }, 2)

		Expect(s.Run()).To(Succeed())
		Expect(seen).To(Equal([]int{0, 0}))
		Expect(sig.Read()).To(Equal(1))
	})

	It("should let every reader of a step see the old value", func() {
		a := signal.New(s, 1)
		b := signal.New(s, 2)

		s.Schedule(func() {
			a.Write(b.Read())
			b.Write(a.Read())
		}, 1)

		Expect(s.Run()).To(Succeed())
		Expect(a.Read()).To(Equal(2))
		Expect(b.Read()).To(Equal(1))
	})

	It("should not trigger on idempotent writes", func() {
		sig := signal.New(s, 4)
		fired := 0
		sig.Event().Bind(func() { fired++ })
		sig.PosEdge().Bind(func() { fired++ })
		sig.NegEdge().Bind(func() { fired++ })

		sig.WriteAfter(4, 1)
		sig.WriteAfter(4, 2)

		Expect(s.Run()).To(Succeed())
		Expect(fired).To(Equal(0))
	})

	It("should trigger exactly one edge per change", func() {
		sig := signal.New(s, 3)
		var trace []string

		sig.Event().Bind(func() {
			trace = append(trace, fmt.Sprintf("%d: change %d", s.CurrentTime(), sig.Read()))
		})
		sig.PosEdge().Bind(func() {
			trace = append(trace, fmt.Sprintf("%d: pos", s.CurrentTime()))
		})
		sig.NegEdge().Bind(func() {
			trace = append(trace, fmt.Sprintf("%d: neg", s.CurrentTime()))
		})

		sig.WriteAfter(5, 1)
		sig.WriteAfter(2, 2)

		Expect(s.Run()).To(Succeed())
		Expect(trace).To(Equal([]string{
			"1: change 5", "1: pos",
			"2: change 2", "2: neg",
		}))
	})

	It("should report boolean edges", func() {
		clk := signal.NewBool(s, false)
		var rises, falls []sim.VTime

		clk.PosEdge().Bind(func() { rises = append(rises, s.CurrentTime()) })
		clk.NegEdge().Bind(func() { falls = append(falls, s.CurrentTime()) })

		clk.WriteAfter(true, 1)
		clk.WriteAfter(false, 2)
		clk.WriteAfter(true, 3)

		Expect(s.Run()).To(Succeed())
		Expect(rises).To(Equal([]sim.VTime{1, 3}))
		Expect(falls).To(Equal([]sim.VTime{2}))
	})

	It("should report edges of ordered values by default", func() {
		sig := signal.New(s, 0)
		var edges []string
		sig.PosEdge().Bind(func() { edges = append(edges, fmt.Sprintf("%d: pos", s.CurrentTime())) })
		sig.NegEdge().Bind(func() { edges = append(edges, fmt.Sprintf("%d: neg", s.CurrentTime())) })

		sig.WriteAfter(1, 1)
		sig.WriteAfter(1, 2)
		sig.WriteAfter(-3, 3)

		Expect(s.Run()).To(Succeed())
		Expect(edges).To(Equal([]string{"1: pos", "3: neg"}))
	})

	It("should not report edges without an order", func() {
		type mode struct{ name string }

		sig := signal.NewComparable(s, mode{"idle"})
		edges := 0
		sig.PosEdge().Bind(func() { edges++ })
		sig.NegEdge().Bind(func() { edges++ })

		sig.Write(mode{"busy"})

		Expect(s.Run()).To(Succeed())
		Expect(sig.Read()).To(Equal(mode{"busy"}))
		Expect(edges).To(Equal(0))
	})

	It("should use a custom comparator", func() {
		sig := signal.NewWithComparator(s, 1.0, func(old, new float64) bool {
			return math.Abs(old-new) > 0.5
		})
		changes := 0
		sig.Event().Bind(func() { changes++ })

		sig.WriteAfter(1.2, 1)
		sig.WriteAfter(2.0, 2)

		Expect(s.Run()).To(Succeed())
		Expect(changes).To(Equal(1))
		Expect(sig.Read()).To(Equal(2.0))
	})

	It("should write through a delayed writer", func() {
		sig := signal.New(s, 0)
		at := sim.VTime(0)
		sig.Event().Bind(func() { at = s.CurrentTime() })

		s.Schedule(func() { sig.After(3).Write(9) }, 2)

		Expect(s.Run()).To(Succeed())
		Expect(at).To(Equal(sim.VTime(5)))
	})

	It("should name the signal and its events", func() {
		sig := signal.NewBool(s, false).Named("clk")

		Expect(sig.Name()).To(Equal("clk"))
		Expect(sig.Event().Name()).To(Equal("clk"))
		Expect(sig.PosEdge().Name()).To(Equal("clk.posedge"))
		Expect(sig.NegEdge().Name()).To(Equal("clk.negedge"))
	})

	It("should resume a process waiting on an edge", func() {
		req := signal.NewBool(s, false).Named("req")
		resumed := sim.VTime(0)

		s.Forever(func(p *sim.Process) {
			p.Wait(req.PosEdge())
			resumed = p.Now()
			p.Finish()
		})
		req.WriteAfter(true, 7)

		Expect(s.Run()).To(Succeed())
		Expect(resumed).To(Equal(sim.VTime(7)))
	})

	It("should propagate edges through a delay-1 inverter", func() {
		in := signal.NewBool(s, false).Named("in")
		out := signal.NewBool(s, true).Named("out")
		var trace []string

		event.Always(func() { out.WriteAfter(!in.Read(), 1) }, in)
		out.PosEdge().Bind(func() {
			trace = append(trace, fmt.Sprintf("%d: out rise", s.CurrentTime()))
		})
		out.NegEdge().Bind(func() {
			trace = append(trace, fmt.Sprintf("%d: out fall", s.CurrentTime()))
		})

		in.WriteAfter(true, 5)
		in.WriteAfter(false, 10)

		Expect(s.Run()).To(Succeed())
		Expect(trace).To(Equal([]string{"6: out fall", "11: out rise"}))
	})

	It("should report value changes to hooks", func() {
		sig := signal.New(s, 1).Named("count")
		var changes []signal.Change

		sig.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			Expect(ctx.Pos).To(BeIdenticalTo(signal.HookPosValueChange))
			changes = append(changes, ctx.Item.(signal.Change))
		}))

		sig.Write(2)

		Expect(s.Run()).To(Succeed())
		Expect(changes).To(Equal([]signal.Change{{Name: "count", Old: 1, New: 2}}))
	})

	It("should restore its value silently", func() {
		sig := signal.New(s, 1).Named("count")
		fired := false
		sig.Event().Bind(func() { fired = true })

		var state stateful.State = sig
		Expect(state.SaveState()).To(Equal(1))

		err := state.LoadState(func(target any) error {
			*(target.(*int)) = 42
			return nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(sig.Read()).To(Equal(42))
		Expect(fired).To(BeFalse())
	})
})

var _ = Describe("Wire", func() {
	It("should apply writes immediately", func() {
		w := signal.NewWire(0).Named("bus")
		var trace []string

		w.Event().Bind(func() { trace = append(trace, fmt.Sprintf("change %d", w.Read())) })
		w.PosEdge().Bind(func() { trace = append(trace, "pos") })
		w.NegEdge().Bind(func() { trace = append(trace, "neg") })

		w.Write(3)
		trace = append(trace, "after write")
		w.Write(3)
		w.Write(1)

		Expect(trace).To(Equal([]string{
			"change 3", "pos", "after write",
			"change 1", "neg",
		}))
	})

	It("should report edges of ordered values by default", func() {
		w := signal.NewWire("b")
		var edges []string
		w.PosEdge().Bind(func() { edges = append(edges, "pos") })
		w.NegEdge().Bind(func() { edges = append(edges, "neg") })

		w.Write("c")
		w.Write("a")

		Expect(edges).To(Equal([]string{"pos", "neg"}))
	})

	It("should not report edges without an order", func() {
		w := signal.NewWireComparable(struct{ on bool }{})
		edges := 0
		w.PosEdge().Bind(func() { edges++ })
		w.NegEdge().Bind(func() { edges++ })

		w.Write(struct{ on bool }{on: true})

		Expect(edges).To(Equal(0))
	})

	It("should chain combinational logic in the same step", func() {
		a := signal.NewBoolWire(false)
		notA := signal.NewBoolWire(true)
		event.Always(func() { notA.Write(!a.Read()) }, a)

		a.Write(true)

		Expect(notA.Read()).To(BeFalse())
	})

	It("should support custom comparators", func() {
		w := signal.NewWireWithComparator([]int{1}, func(old, new []int) bool {
			return len(old) != len(new)
		})
		changes := 0
		w.Event().Bind(func() { changes++ })

		w.Write([]int{2})
		w.Write([]int{2, 3})

		Expect(changes).To(Equal(1))
		Expect(w.Read()).To(Equal([]int{2, 3}))
	})
})

var _ = Describe("Const", func() {
	It("should never change", func() {
		var r signal.Reader[int] = signal.NewConst(5)

		Expect(r.Read()).To(Equal(5))
		Expect(r.Event().NumSubscribers()).To(Equal(0))
	})

	It("should never wake a waiting process", func() {
		s := sim.NewScheduler()
		c := signal.NewConst(true)
		resumed := false

		s.Forever(func(p *sim.Process) {
			p.Wait(c)
			resumed = true
		})

		Expect(s.Run()).To(Succeed())
		Expect(resumed).To(BeFalse())

		s.Reset()
	})
})
