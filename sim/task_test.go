package sim_test

import (
	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vsim/sim"
)

var _ = Describe("Task", func() {
	var (
		s *sim.Scheduler
	)

	BeforeEach(func() {
		s = sim.NewScheduler()
	})

	AfterEach(func() {
		s.Reset()
	})

	It("should hold the value produced by the task", func() {
		t := sim.Spawn(s, func(p *sim.Process) (int, error) {
			p.Delay(4)
			return int(p.Now()) * 10, nil
		})

		Expect(t.Finished()).To(BeFalse())
		Expect(s.Run()).To(Succeed())

		v, err := t.Result()
		Expect(t.Finished()).To(BeTrue())
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(40))
	})

	It("should let a process await the task", func() {
		var got string

		t := sim.Spawn(s, func(p *sim.Process) (string, error) {
			p.Delay(2)
			return "ready", nil
		}, sim.WithName("producer"))

		s.Forever(func(p *sim.Process) {
			v, err := t.Await(p)
			Expect(err).NotTo(HaveOccurred())
			got = v
			p.Finish()
		})

		Expect(s.Run()).To(Succeed())
		Expect(got).To(Equal("ready"))
		Expect(t.Process().Name()).To(Equal("producer"))
	})

	It("should not suspend when awaiting a finished task", func() {
		t := sim.Spawn(s, func(p *sim.Process) (int, error) {
			return 7, nil
		})

		awaitedAt := sim.VTime(99)
		s.Forever(func(p *sim.Process) {
			p.Delay(3)
			v, _ := t.Await(p)
			Expect(v).To(Equal(7))
			awaitedAt = p.Now()
			p.Finish()
		})

		Expect(s.Run()).To(Succeed())
		Expect(awaitedAt).To(Equal(sim.VTime(3)))
	})

	It("should keep the error returned by the task", func() {
		boom := errors.New("boom")
		t := sim.Spawn(s, func(p *sim.Process) (int, error) {
			return 0, boom
		})

		Expect(s.Run()).To(Succeed())

		_, err := t.Result()
		Expect(err).To(MatchError(boom))
	})

	It("should capture a panic instead of failing the run", func() {
		t := sim.Spawn(s, func(p *sim.Process) (int, error) {
			p.Delay(1)
			panic("bad input")
		})

		Expect(s.Run()).To(Succeed())

		_, err := t.Result()
		Expect(t.Finished()).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("bad input")))
	})

	It("should report a task that finished without a result", func() {
		t := sim.Spawn(s, func(p *sim.Process) (int, error) {
			p.Finish()
			return 1, nil
		})

		Expect(s.Run()).To(Succeed())

		_, err := t.Result()
		Expect(err).To(MatchError(sim.ErrTaskAborted))
	})

	It("should be usable as a wait source", func() {
		t := sim.Spawn(s, func(p *sim.Process) (int, error) {
			p.Delay(5)
			return 0, nil
		})

		resumed := sim.VTime(0)
		s.Forever(func(p *sim.Process) {
			p.Wait(t)
			resumed = p.Now()
			p.Finish()
		})

		Expect(s.Run()).To(Succeed())
		Expect(resumed).To(Equal(sim.VTime(5)))
	})
})
