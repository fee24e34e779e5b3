package device

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// DefaultSpnavSocket is where spacenavd listens.
const DefaultSpnavSocket = "/var/run/spnav.sock"

// spacenavd packet layout: eight native-endian int32 words.
//
//	motion:  0, x, y, z, rx, ry, rz, period
//	press:   1, button, 0...
//	release: 2, button, 0...
const (
	spnavPacketSize = 8 * 4

	spnavMotion  = 0
	spnavPress   = 1
	spnavRelease = 2
)

// Spnav reads samples from a spacenavd daemon socket.
type Spnav struct {
	fd      int
	path    string
	pending []byte
	scratch []byte
}

// DialSpnav connects to the spacenavd socket at path.
func DialSpnav(path string) (*Spnav, error) {
	if path == "" {
		path = DefaultSpnavSocket
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("spnav socket: %w", err)
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("connect to spacenavd at %s: %w", path, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("spnav socket: %w", err)
	}
	return newSpnav(fd, path), nil
}

func newSpnav(fd int, path string) *Spnav {
	return &Spnav{
		fd:      fd,
		path:    path,
		scratch: make([]byte, 64*spnavPacketSize),
	}
}

func (s *Spnav) Fd() int      { return s.fd }
func (s *Spnav) Name() string { return "spnav:" + s.path }

// ReadSamples drains the socket. A packet split across reads is kept until
// the rest arrives.
func (s *Spnav) ReadSamples(dst []Sample) ([]Sample, error) {
	var err error
	s.pending, err = drainFd(s.fd, s.pending, s.scratch)

	off := 0
	for ; off+spnavPacketSize <= len(s.pending); off += spnavPacketSize {
		if sample, ok := decodeSpnav(s.pending[off : off+spnavPacketSize]); ok {
			dst = append(dst, sample)
		}
	}
	s.pending = append(s.pending[:0], s.pending[off:]...)

	return dst, err
}

// decodeSpnav decodes one packet. Unknown packet types are skipped.
func decodeSpnav(p []byte) (Sample, bool) {
	var words [8]int32
	for i := range words {
		words[i] = int32(binary.NativeEndian.Uint32(p[i*4:]))
	}

	switch words[0] {
	case spnavMotion:
		var s Sample
		s.Kind = KindMotion
		for i := 0; i < 6; i++ {
			s.Axes[i] = int(words[1+i])
		}
		return s, true
	case spnavPress, spnavRelease:
		return Sample{
			Kind:    KindButton,
			Button:  int(words[1]),
			Pressed: words[0] == spnavPress,
		}, true
	default:
		return Sample{}, false
	}
}

func (s *Spnav) Close() error {
	if s.fd < 0 {
		return nil
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}
