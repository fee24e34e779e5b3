package daemon

import (
	"errors"
	"log/slog"

	"spacemouse-desktop/internal/motion"
	"spacemouse-desktop/internal/output"
)

// runEffect executes a single router-emitted Command against the output
// collaborators. A nil collaborator means the feature is disabled and the
// command is dropped. Failures are logged; they never stop the loop.
func runEffect(cmd motion.Command, emitter output.Emitter, desktop output.Desktop, logger *slog.Logger) {
	switch c := cmd.(type) {
	case motion.CmdEmit:
		if emitter == nil {
			logger.Debug("scroll emitter disabled, dropping", "command", c)
			return
		}
		if err := emitter.Emit(c.DX, c.DY, c.DZ); err != nil {
			logger.Warn("emit failed", "error", err, "dx", c.DX, "dy", c.DY, "dz", c.DZ)
		}

	case motion.CmdSwitchDesktop:
		if desktop == nil {
			logger.Debug("desktop backend disabled, dropping", "command", c)
			return
		}
		logger.Debug("switch desktop", "direction", c.Direction)
		if err := desktop.SwitchDesktop(c.Direction); err != nil {
			logger.Warn("desktop switch failed", "error", err, "direction", c.Direction)
		}

	case motion.CmdOverview:
		if desktop == nil {
			logger.Debug("desktop backend disabled, dropping", "command", c)
			return
		}
		if err := desktop.Overview(); err != nil {
			if errors.Is(err, output.ErrUnsupported) {
				logger.Debug("overview not supported by desktop backend")
				return
			}
			logger.Warn("overview failed", "error", err)
		}

	case motion.CmdShowDesktop:
		if desktop == nil {
			logger.Debug("desktop backend disabled, dropping", "command", c)
			return
		}
		if err := desktop.ShowDesktop(c.Shown); err != nil {
			logger.Warn("show desktop failed", "error", err, "shown", c.Shown)
		}

	default:
		logger.Warn("unknown command", "command", cmd)
	}
}
