package output

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"

	"spacemouse-desktop/internal/motion"
)

// EWMH drives any EWMH-compliant X11 window manager through root window
// client messages. It has no overview action.
type EWMH struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

// DialEWMH connects to the X server named by $DISPLAY.
func DialEWMH() (*EWMH, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X11: %w", err)
	}
	return &EWMH{xu: xu, root: xu.RootWin()}, nil
}

// SwitchDesktop moves to the neighbouring desktop, wrapping around.
func (e *EWMH) SwitchDesktop(dir motion.Direction) error {
	current, err := ewmh.CurrentDesktopGet(e.xu)
	if err != nil {
		return fmt.Errorf("failed to get current desktop: %w", err)
	}
	count, err := ewmh.NumberOfDesktopsGet(e.xu)
	if err != nil {
		return fmt.Errorf("failed to get desktop count: %w", err)
	}
	target, ok := neighbourDesktop(int(current), int(count), dir)
	if !ok {
		return nil
	}
	return e.rootMessage("_NET_CURRENT_DESKTOP", uint32(target), uint32(xproto.TimeCurrentTime))
}

// neighbourDesktop returns the desktop next to current in direction dir.
func neighbourDesktop(current, count int, dir motion.Direction) (int, bool) {
	if count <= 1 {
		return 0, false
	}
	return ((current+int(dir))%count + count) % count, true
}

func (e *EWMH) Overview() error {
	return ErrUnsupported
}

func (e *EWMH) ShowDesktop(shown bool) error {
	var v uint32
	if shown {
		v = 1
	}
	return e.rootMessage("_NET_SHOWING_DESKTOP", v)
}

// rootMessage sends an EWMH client message to the root window.
// We build the message manually because the xgbutil ewmh request helpers
// panic on this library version.
func (e *EWMH) rootMessage(atomName string, data ...uint32) error {
	atomReply, err := xproto.InternAtom(e.xu.Conn(), false,
		uint16(len(atomName)), atomName).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atomName, err)
	}

	words := make([]uint32, 5)
	copy(words, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: e.root,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New(words),
	}

	return xproto.SendEventChecked(
		e.xu.Conn(),
		false,
		e.root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

func (e *EWMH) Close() error {
	e.xu.Conn().Close()
	return nil
}
