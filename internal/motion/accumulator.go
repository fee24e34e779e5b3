package motion

import "math"

// MaxStep bounds the whole units a remainder can hold, keeping every
// int conversion downstream exact.
const MaxStep = 1 << 16

// Consume adds delta to remainder and returns the whole units it now holds,
// truncated toward zero and clamped to ±MaxStep. The remainder keeps only
// the fractional part, so it always stays within (-1, 1) and no motion is
// lost between samples.
func Consume(remainder *float64, delta float64) int {
	*remainder += delta
	if math.IsNaN(*remainder) {
		*remainder = 0
		return 0
	}
	*remainder = max(-MaxStep, min(MaxStep, *remainder))
	whole := int(*remainder)
	*remainder -= float64(whole)
	return whole
}

// Accumulator carries the fractional scroll and zoom remainders between
// samples.
type Accumulator struct {
	X, Y, Z float64
}

// Reset drops any carried fraction. Called whenever the scale it was
// measured under may change: profile switch, control client, reload.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// Drain returns the whole units held on each axis and keeps the fractions.
func (a *Accumulator) Drain() (dx, dy, dz int) {
	return Consume(&a.X, 0), Consume(&a.Y, 0), Consume(&a.Z, 0)
}
