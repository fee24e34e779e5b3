package motion

import (
	"time"

	"spacemouse-desktop/internal/profile"
)

// Router maps device samples onto accumulator updates and Commands using
// the active profile's configuration.
//
// Its own state (the desktop-switch gate and the show-desktop toggle) lives
// for the whole process and is not reset by profile switches or reloads.
type Router struct {
	gate         Gate
	desktopShown bool
}

// NewRouter creates a Router with a fresh gate and the desktop not shown.
func NewRouter() *Router {
	return &Router{}
}

// DesktopShown reports the current show-desktop toggle state.
func (r *Router) DesktopShown() bool { return r.desktopShown }

// Motion routes one motion sample. All six slots are applied before the
// accumulator is drained, so a sample yields at most one CmdEmit, placed
// after any desktop switches it triggered.
func (r *Router) Motion(cfg *profile.Config, axes [profile.NumAxes]int, now time.Time, acc *Accumulator) []Command {
	var cmds []Command

	for slot, raw := range axes {
		switch cfg.AxisActionFor(slot) {
		case profile.AxisScrollH:
			v := Shape(raw, cfg.Deadzone, cfg.ScrollExponent, cfg.ScrollSpeed) * cfg.Sensitivity
			if cfg.InvertScrollX {
				v = -v
			}
			acc.X += v

		case profile.AxisScrollV:
			v := Shape(raw, cfg.Deadzone, cfg.ScrollExponent, cfg.ScrollSpeed) * cfg.Sensitivity
			if cfg.InvertScrollY {
				v = -v
			}
			// Pushing forward scrolls up.
			acc.Y -= v

		case profile.AxisZoom:
			acc.Z += Shape(raw, cfg.Deadzone, cfg.ScrollExponent, cfg.ZoomSpeed) * cfg.Sensitivity

		case profile.AxisDesktopSwitch:
			if dir, ok := r.gate.Offer(raw, cfg.DesktopSwitchThreshold, cfg.DesktopSwitchCooldown(), now); ok {
				cmds = append(cmds, CmdSwitchDesktop{Direction: dir})
			}
		}
	}

	dx, dy, dz := acc.Drain()
	if dx != 0 || dy != 0 || dz != 0 {
		cmds = append(cmds, CmdEmit{DX: dx, DY: dy, DZ: dz})
	}
	return cmds
}

// Button routes one button transition. Releases and unmapped or
// out-of-range buttons produce nothing.
func (r *Router) Button(cfg *profile.Config, index int, pressed bool) []Command {
	if !pressed {
		return nil
	}

	switch cfg.ButtonActionFor(index) {
	case profile.ButtonOverview:
		return []Command{CmdOverview{}}
	case profile.ButtonShowDesktop:
		r.desktopShown = !r.desktopShown
		return []Command{CmdShowDesktop{Shown: r.desktopShown}}
	default:
		return nil
	}
}
