package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"spacemouse-desktop/internal/control"
	"spacemouse-desktop/internal/device"
	"spacemouse-desktop/internal/output"
)

// DefaultPollTimeout bounds each readiness wait so flags are seen promptly
// even when nothing is happening.
const DefaultPollTimeout = 100 * time.Millisecond

// ErrDeviceLost ends the loop when the device hangs up or fails.
var ErrDeviceLost = errors.New("device lost")

// Loop is the single-threaded main loop. Source, Engine and Flags are
// required; Control, Emitter and Desktop may be nil to disable them.
type Loop struct {
	Engine  *EngineState
	Source  device.Source
	Control *control.Server
	Emitter output.Emitter
	Desktop output.Desktop
	Flags   *Flags
	Logger  *slog.Logger

	PollTimeout time.Duration
	Now         func() time.Time
}

// Run iterates until shutdown is requested, ctx is canceled, the device is
// lost or the readiness wait fails. A requested shutdown returns nil.
//
// Each iteration: observe shutdown, perform a pending reload, wait for
// readiness, serve one control client, then drain and route every
// available device sample.
func (l *Loop) Run(ctx context.Context) error {
	timeout := l.PollTimeout
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	now := l.Now
	if now == nil {
		now = time.Now
	}

	pfds := []unix.PollFd{{Fd: int32(l.Source.Fd()), Events: unix.POLLIN}}
	if l.Control != nil {
		pfds = append(pfds, unix.PollFd{Fd: int32(l.Control.Fd()), Events: unix.POLLIN})
	}

	var samples []device.Sample

	for {
		if l.Flags.ShutdownRequested() || ctx.Err() != nil {
			l.Logger.Info("daemon stopping")
			return nil
		}

		if l.Flags.TakeReload() {
			l.Logger.Info("reloading config")
			l.Engine.Reload()
		}

		for i := range pfds {
			pfds[i].Revents = 0
		}
		n, err := unix.Poll(pfds, int(timeout/time.Millisecond))
		if err != nil {
			// Handle interrupted system call (e.g., SIGHUP)
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			continue
		}

		if l.Control != nil && pfds[1].Revents&unix.POLLIN != 0 {
			if err := l.Control.ServeOne(l.Engine); err != nil {
				l.Logger.Warn("control client failed", "error", err)
			}
			// A client usually means a profile change is coming.
			l.Engine.ResetAccumulators()
		}

		if pfds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			var readErr error
			samples, readErr = l.Source.ReadSamples(samples[:0])

			for _, s := range samples {
				for _, cmd := range l.Engine.Route(s, now()) {
					l.Logger.Debug("command", "command", cmd)
					runEffect(cmd, l.Emitter, l.Desktop, l.Logger)
				}
			}

			if readErr != nil {
				return fmt.Errorf("%w: %s: %v", ErrDeviceLost, l.Source.Name(), readErr)
			}
		}
	}
}
