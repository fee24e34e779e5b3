package output

import (
	"fmt"
	"math"
	"time"

	evdev "github.com/holoplot/go-evdev"
)

// UinputName is the name of the virtual device.
const UinputName = "SpaceMouse Desktop Scroll"

// hiResPerDetent is the REL_*_HI_RES value of one classic wheel detent.
const hiResPerDetent = 120

// maxDetents keeps steps*hiResPerDetent within int32.
const maxDetents = math.MaxInt32 / hiResPerDetent

// busVirtual is BUS_VIRTUAL from linux/input.h.
const busVirtual = 0x06

// eventWriter is the part of *evdev.InputDevice the emitter uses.
type eventWriter interface {
	WriteOne(event *evdev.InputEvent) error
	Close() error
}

// Uinput is a virtual wheel device. Scrolling sends classic and hi-res
// wheel events; zoom is the wheel with left Ctrl held.
type Uinput struct {
	dev eventWriter
}

// OpenUinput creates the virtual device.
func OpenUinput() (*Uinput, error) {
	dev, err := evdev.CreateDevice(UinputName,
		evdev.InputID{
			BusType: busVirtual,
			Vendor:  0x256f,
			Product: 0x0001,
			Version: 1,
		},
		map[evdev.EvType][]evdev.EvCode{
			evdev.EV_REL: {
				evdev.REL_WHEEL,
				evdev.REL_HWHEEL,
				evdev.REL_WHEEL_HI_RES,
				evdev.REL_HWHEEL_HI_RES,
			},
			evdev.EV_KEY: {
				evdev.BTN_LEFT,
				evdev.KEY_LEFTCTRL,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create uinput device: %w", err)
	}

	// Give the compositor time to pick up the new device.
	time.Sleep(100 * time.Millisecond)

	return &Uinput{dev: dev}, nil
}

func (u *Uinput) write(typ evdev.EvType, code evdev.EvCode, value int32) error {
	return u.dev.WriteOne(&evdev.InputEvent{Type: typ, Code: code, Value: value})
}

func (u *Uinput) syn() error {
	return u.write(evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

// Emit sends one frame of scroll steps and, separately, the zoom steps.
func (u *Uinput) Emit(dx, dy, dz int) error {
	if dx != 0 || dy != 0 {
		if err := u.scroll(dx, dy); err != nil {
			return err
		}
	}
	if dz != 0 {
		return u.zoom(dz)
	}
	return nil
}

func (u *Uinput) scroll(dx, dy int) error {
	if dy != 0 {
		if err := u.wheel(evdev.REL_WHEEL, evdev.REL_WHEEL_HI_RES, dy); err != nil {
			return err
		}
	}
	if dx != 0 {
		if err := u.wheel(evdev.REL_HWHEEL, evdev.REL_HWHEEL_HI_RES, dx); err != nil {
			return err
		}
	}
	if err := u.syn(); err != nil {
		return fmt.Errorf("uinput scroll: %w", err)
	}
	return nil
}

func (u *Uinput) wheel(code, hiRes evdev.EvCode, steps int) error {
	steps = max(-maxDetents, min(maxDetents, steps))
	if err := u.write(evdev.EV_REL, code, int32(steps)); err != nil {
		return fmt.Errorf("uinput wheel: %w", err)
	}
	if err := u.write(evdev.EV_REL, hiRes, int32(steps*hiResPerDetent)); err != nil {
		return fmt.Errorf("uinput wheel: %w", err)
	}
	return nil
}

func (u *Uinput) zoom(dz int) error {
	if err := u.write(evdev.EV_KEY, evdev.KEY_LEFTCTRL, 1); err != nil {
		return fmt.Errorf("uinput zoom: %w", err)
	}
	if err := u.syn(); err != nil {
		return fmt.Errorf("uinput zoom: %w", err)
	}

	err := u.wheel(evdev.REL_WHEEL, evdev.REL_WHEEL_HI_RES, dz)
	if err == nil {
		err = u.syn()
	}

	// Always release Ctrl, even when the wheel failed.
	if relErr := u.write(evdev.EV_KEY, evdev.KEY_LEFTCTRL, 0); relErr != nil && err == nil {
		err = fmt.Errorf("uinput zoom: %w", relErr)
	}
	if synErr := u.syn(); synErr != nil && err == nil {
		err = fmt.Errorf("uinput zoom: %w", synErr)
	}
	return err
}

// Close destroys the virtual device.
func (u *Uinput) Close() error {
	return u.dev.Close()
}
