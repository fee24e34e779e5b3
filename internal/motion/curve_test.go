package motion

import (
	"math"
	"testing"
)

// TestShape_InsideDeadzoneIsZero checks every raw value inside the deadzone
func TestShape_InsideDeadzoneIsZero(t *testing.T) {
	for _, dz := range []int{0, 1, 15, 100, 349} {
		for raw := -dz + 1; raw < dz; raw++ {
			if got := Shape(raw, dz, 2.0, 3.0); got != 0 {
				t.Fatalf("Shape(%d, deadzone=%d) = %v, expected 0", raw, dz, got)
			}
		}
	}
}

// TestShape_MonotoneAndSignPreserving walks the whole raw range for a few
// curve shapes
func TestShape_MonotoneAndSignPreserving(t *testing.T) {
	curves := []struct {
		deadzone int
		exponent float64
		scale    float64
	}{
		{15, 2.0, 3.0},
		{0, 1.0, 1.0},
		{40, 0.5, 2.0},
		{15, 3.5, 0.25},
	}

	for _, c := range curves {
		prevPos, prevNeg := 0.0, 0.0
		for raw := c.deadzone; raw <= MaxRaw+50; raw++ {
			pos := Shape(raw, c.deadzone, c.exponent, c.scale)
			neg := Shape(-raw, c.deadzone, c.exponent, c.scale)

			if pos < 0 || neg > 0 {
				t.Fatalf("sign not preserved at raw=%d: %v %v", raw, pos, neg)
			}
			if math.Abs(pos) < math.Abs(prevPos) || math.Abs(neg) < math.Abs(prevNeg) {
				t.Fatalf("not monotone at raw=%d (deadzone=%d exp=%v)", raw, c.deadzone, c.exponent)
			}
			if pos != -neg {
				t.Fatalf("expected symmetric output at raw=%d, got %v and %v", raw, pos, neg)
			}
			prevPos, prevNeg = pos, neg
		}
	}
}

func TestShape_Endpoints(t *testing.T) {
	if got := Shape(15, 15, 2.0, 3.0); got != 0 {
		t.Errorf("expected 0 at the deadzone edge, got %v", got)
	}
	if got := Shape(MaxRaw, 15, 2.0, 3.0); got != 3.0 {
		t.Errorf("expected full scale at MaxRaw, got %v", got)
	}
	// Beyond MaxRaw is clamped.
	if got := Shape(-1000, 15, 2.0, 3.0); got != -3.0 {
		t.Errorf("expected -3.0 past -MaxRaw, got %v", got)
	}

	// Halfway past the deadzone with a square curve gives a quarter.
	raw := 15 + (MaxRaw-15)/2
	want := math.Pow(float64(raw-15)/float64(MaxRaw-15), 2) * 3.0
	if got := Shape(raw, 15, 2.0, 3.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, got)
	}
}
