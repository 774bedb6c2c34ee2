package timing

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/vsim/sim"
)

// A BoolCell is a boolean value that a clock can toggle. Both signals and
// wires qualify.
type BoolCell interface {
	Read() bool
	Write(v bool)
}

// A Clock toggles a boolean cell every half period, forever, starting at the
// initial delay.
type Clock struct {
	sched      sim.CallbackScheduler
	cell       BoolCell
	halfPeriod sim.VTime
	delay      sim.VTime

	running    bool
	generation uint64
	toggles    uint64
}

// NewClock creates a clock that toggles cell every halfPeriod ticks. The clock
// does nothing until Start is called.
func NewClock(s sim.CallbackScheduler, cell BoolCell, halfPeriod sim.VTime) *Clock {
	if halfPeriod == 0 {
		panic("timing: clock half period must be greater than zero")
	}

	return &Clock{
		sched:      s,
		cell:       cell,
		halfPeriod: halfPeriod,
	}
}

// NewDomainClock creates a clock running at the frequency of d.
func NewDomainClock(s sim.CallbackScheduler, cell BoolCell, d *Domain) *Clock {
	return NewClock(s, cell, d.HalfPeriod())
}

// WithInitialDelay sets the delay before the first toggle.
func (c *Clock) WithInitialDelay(d sim.VTime) *Clock {
	c.delay = d
	return c
}

// WithPeriod sets the full period of the clock. The period must be even.
func (c *Clock) WithPeriod(p sim.VTime) *Clock {
	if p < 2 || p%2 != 0 {
		panic(errors.Errorf("timing: clock period %d is not a positive even number", p))
	}

	c.halfPeriod = p / 2

	return c
}

// HalfPeriod returns the number of ticks between two toggles.
func (c *Clock) HalfPeriod() sim.VTime {
	return c.halfPeriod
}

// Toggles returns how many times the clock has toggled its cell.
func (c *Clock) Toggles() uint64 {
	return c.toggles
}

// IsRunning tells if the clock is started.
func (c *Clock) IsRunning() bool {
	return c.running
}

// Start schedules the first toggle after the initial delay. Starting a running
// clock has no effect.
func (c *Clock) Start() {
	if c.running {
		return
	}

	c.running = true
	c.generation++
	c.scheduleToggle(c.delay)
}

// Stop halts the clock. The toggle already scheduled is dropped.
func (c *Clock) Stop() {
	c.running = false
}

func (c *Clock) scheduleToggle(delay sim.VTime) {
	gen := c.generation

	c.sched.Schedule(func() {
		if !c.running || gen != c.generation {
			return
		}

		c.cell.Write(!c.cell.Read())
		c.toggles++
		c.scheduleToggle(c.halfPeriod)
	}, delay)
}
