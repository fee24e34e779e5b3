package daemon

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Flags carries asynchronous requests into the loop. Setters do a single
// atomic store and nothing else; only the loop reads and clears them.
type Flags struct {
	shutdown atomic.Bool
	reload   atomic.Bool
}

func (f *Flags) RequestShutdown() { f.shutdown.Store(true) }
func (f *Flags) RequestReload()   { f.reload.Store(true) }

// ShutdownRequested reports whether shutdown was requested. It is never
// cleared.
func (f *Flags) ShutdownRequested() bool { return f.shutdown.Load() }

// TakeReload reports and clears a pending reload request.
func (f *Flags) TakeReload() bool { return f.reload.Swap(false) }

// State of the main loop.
type State int

const (
	Running State = iota
	ReloadPending
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case ReloadPending:
		return "reload-pending"
	case ShuttingDown:
		return "shutting-down"
	default:
		return "running"
	}
}

// State derives the loop state from the flags. Shutdown wins over a
// pending reload.
func (f *Flags) State() State {
	switch {
	case f.shutdown.Load():
		return ShuttingDown
	case f.reload.Load():
		return ReloadPending
	default:
		return Running
	}
}

// NotifySignals maps SIGINT and SIGTERM to shutdown and SIGHUP to reload.
// The forwarding goroutine only sets flags. Call the returned function to
// stop receiving signals.
func NotifySignals(ctx context.Context, flags *Flags) (stop func()) {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					flags.RequestReload()
				} else {
					flags.RequestShutdown()
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		cancel()
	}
}
