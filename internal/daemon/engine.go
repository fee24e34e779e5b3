// Package daemon runs the single-threaded event loop: it owns the engine
// state, waits for device and control readiness, routes samples and
// executes the resulting commands.
package daemon

import (
	"log/slog"
	"time"

	"spacemouse-desktop/internal/device"
	"spacemouse-desktop/internal/motion"
	"spacemouse-desktop/internal/profile"
)

// EngineState is everything the loop owns: the profile store with its
// active index, the accumulators and the router. It is only touched from
// the loop goroutine, so it has no locking.
type EngineState struct {
	store        *profile.Store
	profilesPath string
	acc          motion.Accumulator
	router       *motion.Router
	flags        *Flags
	logger       *slog.Logger
}

// NewEngineState loads the profile document at profilesPath. Load problems
// are logged and never fatal.
func NewEngineState(profilesPath string, flags *Flags, logger *slog.Logger) *EngineState {
	e := &EngineState{
		profilesPath: profilesPath,
		router:       motion.NewRouter(),
		flags:        flags,
		logger:       logger,
	}
	e.store = e.load()
	return e
}

func (e *EngineState) load() *profile.Store {
	res := profile.Load(e.profilesPath)
	for _, w := range res.Warnings {
		e.logger.Warn("profile config", "warning", w.String())
	}

	s := res.Store
	e.logger.Info("profiles loaded", "path", e.profilesPath, "count", s.Len(), "fallback", res.Fallback)
	for i := 0; i < s.Len(); i++ {
		p := s.Profile(i)
		e.logger.Debug("profile", "name", p.Name, "wm_classes", len(p.WindowClasses))
	}
	return s
}

// Store returns the profile store.
func (e *EngineState) Store() *profile.Store { return e.store }

// Accumulator returns the scroll/zoom remainders.
func (e *EngineState) Accumulator() motion.Accumulator { return e.acc }

// ResetAccumulators drops carried scroll and zoom fractions.
func (e *EngineState) ResetAccumulators() { e.acc.Reset() }

// Reload re-reads the profile document. The active profile is kept by name
// when it still exists, otherwise the default profile becomes active.
func (e *EngineState) Reload() {
	prev := e.store.ActiveProfile().Name
	e.store.Replace(e.load())
	e.acc.Reset()

	active := e.store.ActiveProfile().Name
	if active != prev {
		e.logger.Warn("active profile gone after reload", "previous", prev, "active", active)
	} else {
		e.logger.Info("config reloaded", "active", active)
	}
}

// Route turns one device sample into commands using the active profile.
func (e *EngineState) Route(s device.Sample, now time.Time) []motion.Command {
	cfg := &e.store.ActiveProfile().Config
	if s.Kind == device.KindButton {
		return e.router.Button(cfg, s.Button, s.Pressed)
	}
	return e.router.Motion(cfg, s.Axes, now, &e.acc)
}

// ActivateProfile implements control.Target.
func (e *EngineState) ActivateProfile(name string) (string, bool) {
	i, ok := e.store.Lookup(name)
	if !ok {
		return "", false
	}
	e.store.SetActive(i)
	e.acc.Reset()

	canonical := e.store.ActiveProfile().Name
	e.logger.Info("switched profile", "profile", canonical)
	return canonical, true
}

// RequestReload implements control.Target. The reload itself happens at the
// start of the next loop iteration.
func (e *EngineState) RequestReload() {
	e.flags.RequestReload()
}

// ActiveProfileName implements control.Target.
func (e *EngineState) ActiveProfileName() string {
	return e.store.ActiveProfile().Name
}

// ProfileNames implements control.Target.
func (e *EngineState) ProfileNames() []string {
	return e.store.Names()
}
