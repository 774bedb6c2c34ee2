package sim_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/vsim/event"
	"github.com/sarchlab/vsim/sim"
	"github.com/sarchlab/vsim/sim/hooking"
)

var _ = Describe("Scheduler", func() {
	var (
		s *sim.Scheduler
	)

	BeforeEach(func() {
		s = sim.NewScheduler()
	})

	AfterEach(func() {
		s.Reset()
	})

	It("should start at time 0 with an empty queue", func() {
		Expect(s.CurrentTime()).To(Equal(sim.VTime(0)))
		Expect(s.Pending()).To(Equal(0))
		Expect(s.Run()).To(Succeed())
	})

	It("should run callbacks in time order", func() {
		var order []sim.VTime

		for _, d := range []sim.VTime{5, 1, 3, 2, 4} {
			s.Schedule(func() { order = append(order, s.CurrentTime()) }, d)
		}

		Expect(s.Pending()).To(Equal(5))
		Expect(s.Run()).To(Succeed())
		Expect(order).To(Equal([]sim.VTime{1, 2, 3, 4, 5}))
	})

	It("should run same-time callbacks in scheduling order", func() {
		var order []string

		s.Schedule(func() { order = append(order, "a") }, 1)
		s.Schedule(func() { order = append(order, "b") }, 1)
		s.Schedule(func() { order = append(order, "c") }, 0)
		s.Schedule(func() { order = append(order, "d") }, 1)

		Expect(s.Run()).To(Succeed())
		Expect(order).To(Equal([]string{"c", "a", "b", "d"}))
	})

	It("should drain same-time cascades before advancing", func() {
		var order []string

		s.Schedule(func() {
			order = append(order, "t1")
			s.Schedule(func() {
				order = append(order, "t1 cascade")
				Expect(s.CurrentTime()).To(Equal(sim.VTime(1)))
			}, 0)
		}, 1)
		s.Schedule(func() { order = append(order, "t2") }, 2)

		Expect(s.Run()).To(Succeed())
		Expect(order).To(Equal([]string{"t1", "t1 cascade", "t2"}))
	})

	It("should schedule relative to the current time", func() {
		var at sim.VTime

		s.Schedule(func() {
			s.Schedule(func() { at = s.CurrentTime() }, 3)
		}, 4)

		Expect(s.Run()).To(Succeed())
		Expect(at).To(Equal(sim.VTime(7)))
	})

	It("should trigger events", func() {
		e := event.New("e")
		fired := sim.VTime(0)
		e.Bind(func() { fired = s.CurrentTime() })

		s.ScheduleTrigger(e, 6)

		Expect(s.Run()).To(Succeed())
		Expect(fired).To(Equal(sim.VTime(6)))
	})

	It("should stop before the time limit", func() {
		var ran []sim.VTime

		for _, d := range []sim.VTime{1, 9, 10, 11} {
			s.Schedule(func() { ran = append(ran, s.CurrentTime()) }, d)
		}

		Expect(s.RunUntil(10)).To(Succeed())
		Expect(ran).To(Equal([]sim.VTime{1, 9}))
	})

	It("should reset the clock and the queue after a run", func() {
		s.Schedule(func() {}, 3)
		s.Schedule(func() {}, 20)

		Expect(s.RunUntil(10)).To(Succeed())
		Expect(s.CurrentTime()).To(Equal(sim.VTime(0)))
		Expect(s.Pending()).To(Equal(0))
	})

	It("should allow the full time range", func() {
		Expect(func() { s.Schedule(func() {}, sim.MaxVTime) }).NotTo(Panic())
	})

	It("should panic when the time overflows", func() {
		s.Schedule(func() {
			s.Schedule(func() {}, sim.MaxVTime)
		}, 1)

		err := s.Run()

		Expect(err).To(MatchError(sim.ErrTimeOverflow))
	})

	It("should fail the run when a callback panics", func() {
		after := false

		s.Schedule(func() { panic("boom") }, 1)
		s.Schedule(func() { after = true }, 2)

		err := s.Run()

		Expect(err).To(MatchError(ContainSubstring("boom")))
		Expect(after).To(BeFalse())
		Expect(s.Run()).To(Succeed())
	})

	It("should stop a free-running simulation after the wall-clock cap", func() {
		var tick func()
		tick = func() { s.Schedule(tick, 1) }
		s.Schedule(tick, 0)

		start := time.Now()
		Expect(s.RunFor(20 * time.Millisecond)).To(Succeed())
		Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
	})

	It("should clear pending work on reset", func() {
		ran := false
		s.Schedule(func() { ran = true }, 1)

		s.Reset()

		Expect(s.Pending()).To(Equal(0))
		Expect(s.Run()).To(Succeed())
		Expect(ran).To(BeFalse())
	})

	It("should panic when reset from inside a run", func() {
		s.Schedule(func() { s.Reset() }, 1)

		Expect(s.Run()).To(MatchError(sim.ErrRunning))
	})

	It("should not dispatch while paused", func() {
		ran := make(chan struct{})
		s.Schedule(func() { close(ran) }, 1)

		s.Pause()
		Expect(s.IsPaused()).To(BeTrue())

		done := make(chan error)
		go func() { done <- s.Run() }()

		Consistently(ran, 50*time.Millisecond).ShouldNot(BeClosed())

		s.Continue()
		Expect(s.IsPaused()).To(BeFalse())
		Eventually(ran).Should(BeClosed())
		Eventually(done).Should(Receive(BeNil()))
	})

	Context("with hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			s.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should invoke hooks around each callback", func() {
			var positions []*hooking.HookPos

			hook.EXPECT().
				Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					Expect(ctx.Domain).To(BeIdenticalTo(s))
					Expect(ctx.Item).To(Equal(sim.CallbackInfo{Time: 2, Seq: 1}))
					positions = append(positions, ctx.Pos)
				}).
				Times(2)

			s.Schedule(func() {}, 2)

			Expect(s.Run()).To(Succeed())
			Expect(positions).To(Equal([]*hooking.HookPos{
				sim.HookPosBeforeCallback,
				sim.HookPosAfterCallback,
			}))
		})
	})
})
