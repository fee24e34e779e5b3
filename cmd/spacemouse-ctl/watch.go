package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/spf13/cobra"

	"spacemouse-desktop/internal/control"
	"spacemouse-desktop/internal/logging"
	"spacemouse-desktop/internal/profile"
	"spacemouse-desktop/internal/runtimepath"
)

func newWatchCmd() *cobra.Command {
	var (
		profilesPath string
		logLevel     string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Switch profiles to follow the focused X11 window",
		Long: "Watches _NET_ACTIVE_WINDOW on the X11 root window and sends PROFILE\n" +
			"to the daemon whenever the focused window's WM_CLASS selects a\n" +
			"different profile (match_wm_class in the profile document).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := logging.Setup(level)

			if profilesPath == "" {
				profilesPath = runtimepath.DefaultProfilesPath()
			}
			res := profile.Load(profilesPath)
			for _, w := range res.Warnings {
				logger.Warn("Profile document warning", "warning", w.String())
			}

			client := control.NewClient(socketPath)
			logger.Info("Watching focused window", "profiles", res.Store.Len(), "socket", client.SocketPath())
			return watchFocus(res.Store, client, logger)
		},
	}
	cmd.Flags().StringVar(&profilesPath, "profiles", "", "profile document to match window classes against")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: error, warn, info, debug")
	return cmd
}

// switcher sends the switch command for a profile name.
type switcher interface {
	Profile(name string) (string, error)
}

// focusTracker maps focused window classes to profiles and only asks the
// daemon to switch when the chosen profile changes.
type focusTracker struct {
	store  *profile.Store
	client switcher
	logger *slog.Logger
	last   string
}

// focus handles one focus change. A failed switch is retried on the next
// focus change.
func (f *focusTracker) focus(wmClass string) {
	want := f.store.MatchWindowClass(wmClass)
	if strings.EqualFold(want, f.last) {
		return
	}

	name, err := f.client.Profile(want)
	if err != nil {
		f.logger.Warn("Profile switch failed", "profile", want, "class", wmClass, "error", err)
		f.last = ""
		return
	}
	f.logger.Info("Profile switched", "profile", name, "class", wmClass)
	f.last = name
}

func watchFocus(store *profile.Store, client switcher, logger *slog.Logger) error {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer xu.Conn().Close()

	activeAtom, err := xprop.Atm(xu, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	root := xu.RootWin()
	if err := xwindow.New(xu, root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("failed to listen on root window: %w", err)
	}

	tracker := &focusTracker{store: store, client: client, logger: logger}
	update := func() {
		win, err := ewmh.ActiveWindowGet(xu)
		if err != nil || win == 0 {
			tracker.focus("")
			return
		}
		tracker.focus(windowClass(xu, win))
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if ev.Atom == activeAtom {
			update()
		}
	}).Connect(xu, root)

	update()
	xevent.Main(xu)
	return nil
}

func windowClass(xu *xgbutil.XUtil, win xproto.Window) string {
	wmClass, err := icccm.WmClassGet(xu, win)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}
