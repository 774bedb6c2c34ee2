package engines_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vsim/engines"
	"github.com/sarchlab/vsim/event"
	"github.com/sarchlab/vsim/signal"
	"github.com/sarchlab/vsim/sim"
)

// ringTrace runs a small ring oscillator and returns its text trace.
func ringTrace() (string, error) {
	s := sim.NewScheduler()
	defer s.Reset()

	a := signal.NewBool(s, false).Named("a")
	b := signal.NewBool(s, true).Named("b")

	event.Always(func() { b.WriteAfter(!a.Read(), 2) }, a)
	event.Always(func() { a.WriteAfter(b.Read(), 3) }, b)

	var sb strings.Builder
	a.Event().Bind(func() { fmt.Fprintf(&sb, "%d: a = %v\n", s.CurrentTime(), a.Read()) })
	b.Event().Bind(func() { fmt.Fprintf(&sb, "%d: b = %v\n", s.CurrentTime(), b.Read()) })

	a.WriteAfter(true, 1)

	if err := s.RunUntil(100); err != nil {
		return "", err
	}

	return sb.String(), nil
}

var _ = Describe("Pool", func() {
	It("should default to one worker per CPU", func() {
		Expect(engines.NewPool(0).Workers()).To(BeNumerically(">", 0))
		Expect(engines.NewPool(3).Workers()).To(Equal(3))
	})

	It("should run every job", func() {
		var count int64
		jobs := make([]engines.Job, 20)
		for i := range jobs {
			jobs[i] = func(context.Context) error {
				atomic.AddInt64(&count, 1)
				return nil
			}
		}

		errs := engines.NewPool(4).Run(context.Background(), jobs)

		Expect(count).To(Equal(int64(20)))
		Expect(engines.FirstError(errs)).NotTo(HaveOccurred())
	})

	It("should report failures per job", func() {
		boom := errors.New("boom")
		jobs := []engines.Job{
			func(context.Context) error { return nil },
			func(context.Context) error { return boom },
			func(context.Context) error { panic("bad job") },
		}

		errs := engines.NewPool(2).Run(context.Background(), jobs)

		Expect(errs[0]).NotTo(HaveOccurred())
		Expect(errs[1]).To(MatchError(boom))
		Expect(errs[2]).To(MatchError(ContainSubstring("bad job")))
		Expect(engines.FirstError(errs)).To(MatchError(boom))
	})

	It("should skip jobs once the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		errs := engines.NewPool(1).Run(ctx, []engines.Job{
			func(context.Context) error { ran = true; return nil },
		})

		Expect(ran).To(BeFalse())
		Expect(errs[0]).To(MatchError(context.Canceled))
	})

	It("should produce identical traces for independent simulations", func() {
		traces, err := engines.Map(context.Background(), engines.NewPool(4), 8,
			func(context.Context, int) (string, error) {
				return ringTrace()
			})

		Expect(err).NotTo(HaveOccurred())
		Expect(traces).To(HaveLen(8))
		Expect(traces[0]).NotTo(BeEmpty())

		for _, tr := range traces {
			Expect(tr).To(Equal(traces[0]))
		}
	})
})
