// Package sim implements the simulation kernel: a virtual clock, a stable
// time-ordered callback queue, and cooperatively scheduled processes.
package sim

import (
	"math"

	"github.com/sarchlab/vsim/event"
)

// VTime is the virtual time of the simulation, in ticks.
type VTime uint64

// MaxVTime is the largest representable virtual time.
const MaxVTime = VTime(math.MaxUint64)

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTime
}

// CallbackScheduler can be used to schedule future work.
type CallbackScheduler interface {
	TimeTeller

	// Schedule runs cb delay ticks after the current time.
	Schedule(cb event.Callback, delay VTime)
}
