// Package device reads 6-DOF motion and button samples from an input
// source. Sources are non-blocking: the daemon polls Fd for readiness and
// drains everything available with ReadSamples.
package device

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind tells motion samples from button samples.
type Kind int

const (
	KindMotion Kind = iota
	KindButton
)

func (k Kind) String() string {
	if k == KindButton {
		return "button"
	}
	return "motion"
}

// Sample is one decoded device event.
type Sample struct {
	Kind Kind

	// Motion: raw translation (x, y, z) and rotation (rx, ry, rz).
	Axes [6]int

	// Button: index and transition.
	Button  int
	Pressed bool
}

// Source is a readable device.
type Source interface {
	// Fd is the descriptor to poll for readability.
	Fd() int
	// ReadSamples appends every sample currently available to dst without
	// blocking. A closed or failed device returns ErrLost.
	ReadSamples(dst []Sample) ([]Sample, error)
	Name() string
	Close() error
}

// ErrLost reports that the device hung up or failed.
var ErrLost = errors.New("device lost")

// Kinds of source, as named in the daemon settings.
const (
	SourceSpnav = "spnav"
	SourceEvdev = "evdev"
)

// Open opens the named kind of source.
func Open(kind, spnavSocket, evdevPath string) (Source, error) {
	switch kind {
	case SourceSpnav:
		return DialSpnav(spnavSocket)
	case SourceEvdev:
		return OpenEvdev(evdevPath)
	default:
		return nil, fmt.Errorf("unknown device source %q", kind)
	}
}

// drainFd reads from a non-blocking fd until it would block. It returns the
// bytes appended to buf. End of stream and read errors other than EAGAIN
// are reported as ErrLost.
func drainFd(fd int, buf, scratch []byte) ([]byte, error) {
	for {
		n, err := unix.Read(fd, scratch)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return buf, nil
		case err != nil:
			return buf, fmt.Errorf("%w: read: %v", ErrLost, err)
		case n == 0:
			return buf, fmt.Errorf("%w: end of stream", ErrLost)
		}
		buf = append(buf, scratch[:n]...)
	}
}
