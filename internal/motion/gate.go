package motion

import "time"

// Direction of a desktop switch.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

func (d Direction) String() string {
	if d < 0 {
		return "previous"
	}
	return "next"
}

// Gate rate-limits desktop switches. Any sample past the threshold may fire,
// but never more than once per cooldown; the axis does not have to return
// below the threshold in between.
//
// The zero Gate has never fired and lets the first qualifying sample through.
type Gate struct {
	last  time.Time
	fired bool
}

// Offer presents one raw axis value. It reports the switch direction and
// true when the gate fires.
func (g *Gate) Offer(value, threshold int, cooldown time.Duration, now time.Time) (Direction, bool) {
	if abs(value) <= threshold {
		return 0, false
	}
	if g.fired && now.Sub(g.last) <= cooldown {
		return 0, false
	}

	g.last = now
	g.fired = true
	if value > 0 {
		return Next, true
	}
	return Previous, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
