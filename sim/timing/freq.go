// Package timing converts physical clock frequencies into virtual-time ticks
// and generates clock waveforms on boolean cells.
package timing

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/sarchlab/vsim/sim"
)

// Freq is a frequency in Hertz.
type Freq uint64

// Units of frequency.
const (
	Hz  Freq = 1
	KHz Freq = 1000 * Hz
	MHz Freq = 1000 * KHz
	GHz Freq = 1000 * MHz
)

var (
	// ErrZeroFrequency is returned when registering a zero frequency.
	ErrZeroFrequency = errors.New("timing: frequency must be greater than zero")

	// ErrFrequencyOverflow is returned when the common resolution of all
	// registered domains does not fit in 64 bits.
	ErrFrequencyOverflow = errors.New("timing: resolution overflow")

	// ErrNoDomains is returned when converting time before any domain is
	// registered.
	ErrNoDomains = errors.New("timing: no frequency domain registered")

	// ErrPrecisionLoss is returned when a duration is not a whole number of
	// ticks.
	ErrPrecisionLoss = errors.New("timing: duration is not aligned with the tick resolution")
)

// A Timescale decides how long a virtual-time tick is in seconds. The tick is
// chosen so that half a period of every registered domain is a whole number of
// ticks, which keeps clock edges of all domains on exact ticks.
type Timescale struct {
	resolution Freq
	domains    map[Freq]*Domain
}

// NewTimescale creates a timescale with no domain.
func NewTimescale() *Timescale {
	return &Timescale{
		domains: make(map[Freq]*Domain),
	}
}

// Register adds a clock domain. Registering the same frequency twice returns
// the same domain. Registering a new frequency may refine the resolution, so
// periods must be read from the domains after all of them are registered.
func (ts *Timescale) Register(f Freq) (*Domain, error) {
	if f == 0 {
		return nil, ErrZeroFrequency
	}

	if d, ok := ts.domains[f]; ok {
		return d, nil
	}

	edgeRate, overflow := bits.Mul64(uint64(f), 2)
	if overflow != 0 {
		return nil, errors.Wrapf(ErrFrequencyOverflow, "frequency %d Hz", f)
	}

	resolution := Freq(edgeRate)
	if ts.resolution != 0 {
		var err error

		resolution, err = lcm(ts.resolution, resolution)
		if err != nil {
			return nil, err
		}
	}

	ts.resolution = resolution
	d := &Domain{freq: f, scale: ts}
	ts.domains[f] = d

	return d, nil
}

// Resolution returns the number of ticks per second.
func (ts *Timescale) Resolution() Freq {
	return ts.resolution
}

// Seconds converts a virtual time into seconds.
func (ts *Timescale) Seconds(t sim.VTime) float64 {
	if ts.resolution == 0 {
		return 0
	}

	return float64(t) / float64(ts.resolution)
}

// Ticks converts a duration in seconds into virtual-time ticks.
func (ts *Timescale) Ticks(sec float64) (sim.VTime, error) {
	if ts.resolution == 0 {
		return 0, ErrNoDomains
	}

	if sec < 0 || math.IsNaN(sec) {
		return 0, errors.Errorf("timing: invalid duration %g s", sec)
	}

	scaled := sec * float64(ts.resolution)
	rounded := math.Round(scaled)

	if math.Abs(scaled-rounded) > alignmentTolerance(scaled) {
		return 0, errors.Wrapf(ErrPrecisionLoss, "%g s at %d ticks/s", sec, ts.resolution)
	}

	if rounded >= float64(math.MaxUint64) {
		return 0, errors.WithStack(sim.ErrTimeOverflow)
	}

	return sim.VTime(rounded), nil
}

// A Domain is a clock frequency registered in a Timescale.
type Domain struct {
	freq  Freq
	scale *Timescale
}

// Freq returns the frequency of the domain.
func (d *Domain) Freq() Freq {
	return d.freq
}

// Period returns the number of ticks in one cycle of the domain.
func (d *Domain) Period() sim.VTime {
	return sim.VTime(d.scale.resolution / d.freq)
}

// HalfPeriod returns the number of ticks between two edges of the domain's
// clock.
func (d *Domain) HalfPeriod() sim.VTime {
	return d.Period() / 2
}

// Cycle returns the number of whole cycles elapsed at now.
func (d *Domain) Cycle(now sim.VTime) uint64 {
	return uint64(now / d.Period())
}

// ThisTick returns the earliest cycle boundary at or after now.
//
//	           Input
//	           (          ]
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (d *Domain) ThisTick(now sim.VTime) sim.VTime {
	p := d.Period()
	if r := now % p; r != 0 {
		return mustAdd(now, p-r)
	}

	return now
}

// NextTick returns the earliest cycle boundary strictly after now.
//
//	           Input
//	           [          )
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (d *Domain) NextTick(now sim.VTime) sim.VTime {
	return d.ThisTick(mustAdd(now, 1))
}

// NCyclesLater returns the cycle boundary n cycles after the one at or after
// now.
func (d *Domain) NCyclesLater(n uint64, now sim.VTime) sim.VTime {
	hi, lo := bits.Mul64(n, uint64(d.Period()))
	if hi != 0 {
		panic(errors.WithStack(sim.ErrTimeOverflow))
	}

	return mustAdd(d.ThisTick(now), sim.VTime(lo))
}

func mustAdd(a, b sim.VTime) sim.VTime {
	if a > sim.MaxVTime-b {
		panic(errors.WithStack(sim.ErrTimeOverflow))
	}

	return a + b
}

func alignmentTolerance(v float64) float64 {
	const ulpFactor = 1e-9

	v = math.Abs(v)
	if v < 1 {
		return ulpFactor
	}

	return v * ulpFactor
}

func lcm(a, b Freq) (Freq, error) {
	g := gcd(a, b)

	q := uint64(a / g)
	if q > math.MaxUint64/uint64(b) {
		return 0, errors.Wrapf(ErrFrequencyOverflow, "lcm(%d, %d)", a, b)
	}

	return Freq(q * uint64(b)), nil
}

func gcd(a, b Freq) Freq {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}
