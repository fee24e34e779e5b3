package device

import (
	"bytes"
	"encoding/binary"
	"fmt"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var inputEventSize = binary.Size(inputEvent{})

// Evdev reads samples straight from an input event node. Axis codes 0..5
// (X, Y, Z, RX, RY, RZ, relative or absolute) are collected until
// SYN_REPORT and emitted as one motion sample; BTN_0+n maps to button n.
//
// Relative axes count only for the frame they arrive in. Absolute axes
// keep their last value, since the kernel omits unchanged ones.
type Evdev struct {
	fd      int
	path    string
	pending []byte
	scratch []byte
	reader  *bytes.Reader

	axes     [6]int
	relative [6]bool
	dirty    bool
}

// maxButtons is how many BTN_0-based key codes map to buttons.
const maxButtons = 16

// OpenEvdev opens the event node at path.
func OpenEvdev(path string) (*Evdev, error) {
	if path == "" {
		return nil, fmt.Errorf("no evdev path configured")
	}
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newEvdev(fd, path), nil
}

func newEvdev(fd int, path string) *Evdev {
	return &Evdev{
		fd:      fd,
		path:    path,
		scratch: make([]byte, 64*inputEventSize),
		reader:  bytes.NewReader(nil),
	}
}

func (e *Evdev) Fd() int      { return e.fd }
func (e *Evdev) Name() string { return "evdev:" + e.path }

// ReadSamples drains the node and decodes complete frames.
func (e *Evdev) ReadSamples(dst []Sample) ([]Sample, error) {
	var err error
	e.pending, err = drainFd(e.fd, e.pending, e.scratch)

	off := 0
	for ; off+inputEventSize <= len(e.pending); off += inputEventSize {
		e.reader.Reset(e.pending[off : off+inputEventSize])
		var ev inputEvent
		if binary.Read(e.reader, binary.LittleEndian, &ev) != nil {
			// Skip malformed events
			continue
		}
		dst = e.handle(ev, dst)
	}
	e.pending = append(e.pending[:0], e.pending[off:]...)

	return dst, err
}

func (e *Evdev) handle(ev inputEvent, dst []Sample) []Sample {
	code := evdev.EvCode(ev.Code)

	switch evdev.EvType(ev.Type) {
	case evdev.EV_REL, evdev.EV_ABS:
		if code < 6 {
			e.axes[code] = int(ev.Value)
			e.relative[code] = evdev.EvType(ev.Type) == evdev.EV_REL
			e.dirty = true
		}

	case evdev.EV_KEY:
		// Ignore autorepeat.
		if ev.Value == 2 || code < evdev.BTN_0 || code >= evdev.BTN_0+maxButtons {
			return dst
		}
		dst = append(dst, Sample{
			Kind:    KindButton,
			Button:  int(code - evdev.BTN_0),
			Pressed: ev.Value == 1,
		})

	case evdev.EV_SYN:
		switch code {
		case evdev.SYN_REPORT:
			if e.dirty {
				dst = append(dst, Sample{Kind: KindMotion, Axes: e.axes})
				e.dirty = false
				e.clearRelative()
			}
		case evdev.SYN_DROPPED:
			e.dirty = false
			e.axes = [6]int{}
			e.relative = [6]bool{}
		}
	}
	return dst
}

func (e *Evdev) clearRelative() {
	for i, rel := range e.relative {
		if rel {
			e.axes[i] = 0
		}
	}
}

func (e *Evdev) Close() error {
	if e.fd < 0 {
		return nil
	}
	err := unix.Close(e.fd)
	e.fd = -1
	return err
}
