// Package output holds the collaborators that turn routed commands into
// desktop effects: a virtual scroll wheel and a desktop-action backend.
package output

import (
	"errors"
	"fmt"

	"spacemouse-desktop/internal/motion"
)

// ErrUnsupported is returned by a Desktop backend for an action it cannot
// perform.
var ErrUnsupported = errors.New("action not supported by desktop backend")

// Emitter injects scroll and zoom steps.
type Emitter interface {
	Emit(dx, dy, dz int) error
	Close() error
}

// Desktop performs window-manager actions.
type Desktop interface {
	SwitchDesktop(dir motion.Direction) error
	Overview() error
	ShowDesktop(shown bool) error
	Close() error
}

// Desktop backend names, as used in the daemon settings.
const (
	DesktopKWin = "kwin"
	DesktopEWMH = "ewmh"
	DesktopNone = "none"
)

// OpenDesktop connects the named backend. "none" returns a nil Desktop and
// no error.
func OpenDesktop(kind string) (Desktop, error) {
	switch kind {
	case DesktopKWin:
		k, err := DialKWin()
		if err != nil {
			return nil, err
		}
		return k, nil
	case DesktopEWMH:
		e, err := DialEWMH()
		if err != nil {
			return nil, err
		}
		return e, nil
	case DesktopNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown desktop backend %q", kind)
	}
}
