// Package motion turns raw 6-DOF samples into scroll, zoom and desktop
// actions. Nothing here performs I/O: the Router returns Commands and the
// daemon loop executes them.
package motion

import "math"

// MaxRaw is the largest raw axis magnitude the device reports.
const MaxRaw = 350

// Shape applies the deadzone and response curve to one raw axis sample.
//
// Samples with |raw| < deadzone return exactly 0. Otherwise the magnitude
// past the deadzone is normalised to [0, 1], raised to exponent, scaled,
// and given the sign of raw.
func Shape(raw, deadzone int, exponent, scale float64) float64 {
	v := float64(raw)
	if math.Abs(v) < float64(deadzone) {
		return 0
	}

	sign := 1.0
	if v < 0 {
		sign = -1.0
	}

	norm := (math.Abs(v) - float64(deadzone)) / (MaxRaw - float64(deadzone))
	norm = math.Max(0, math.Min(1, norm))

	return sign * math.Pow(norm, exponent) * scale
}
