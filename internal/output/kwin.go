package output

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"spacemouse-desktop/internal/motion"
)

const (
	kwinDest      = "org.kde.KWin"
	kwinPath      = "/KWin"
	kwinInterface = "org.kde.KWin"

	kglobalaccelDest      = "org.kde.kglobalaccel"
	kglobalaccelPath      = "/component/kwin"
	kglobalaccelInterface = "org.kde.kglobalaccel.Component"

	// Shortcut name of KWin's window overview.
	overviewShortcut = "ExposeAll"
)

// caller is the part of dbus.BusObject the backend uses.
type caller interface {
	Go(method string, flags dbus.Flags, ch chan *dbus.Call, args ...interface{}) *dbus.Call
}

// KWin drives KDE Plasma over the session bus. Calls are fire-and-forget:
// the loop never waits for KWin to answer.
type KWin struct {
	conn  *dbus.Conn
	kwin  caller
	accel caller
}

// DialKWin connects to the session bus.
func DialKWin() (*KWin, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &KWin{
		conn:  conn,
		kwin:  conn.Object(kwinDest, kwinPath),
		accel: conn.Object(kglobalaccelDest, kglobalaccelPath),
	}, nil
}

func send(obj caller, method string, args ...interface{}) error {
	call := obj.Go(method, dbus.FlagNoReplyExpected, nil, args...)
	if call != nil && call.Err != nil {
		return fmt.Errorf("dbus %s: %w", method, call.Err)
	}
	return nil
}

func (k *KWin) SwitchDesktop(dir motion.Direction) error {
	method := kwinInterface + ".nextDesktop"
	if dir == motion.Previous {
		method = kwinInterface + ".previousDesktop"
	}
	return send(k.kwin, method)
}

func (k *KWin) Overview() error {
	return send(k.accel, kglobalaccelInterface+".invokeShortcut", overviewShortcut)
}

func (k *KWin) ShowDesktop(shown bool) error {
	return send(k.kwin, kwinInterface+".showDesktop", shown)
}

func (k *KWin) Close() error {
	if k.conn == nil {
		return nil
	}
	return k.conn.Close()
}
