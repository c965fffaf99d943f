// Package engines resolves and implements speech engine backends.
package engines

import (
	"github.com/charmbracelet/log"

	"github.com/tridung778/noti-fin/speaker"
	"github.com/tridung778/noti-fin/speaker/engines/command"
	"github.com/tridung778/noti-fin/speaker/engines/noop"
)

// Resolve probes for a usable speech backend once, at session construction,
// and returns it behind the uniform Engine interface. When the real backend
// is absent or the probe fails, the log-only engine takes over. The
// selection is never re-evaluated.
func Resolve(name string, logger *log.Logger) speaker.Engine {
	if logger == nil {
		logger = log.Default()
	}

	switch name {
	case "noop":
		return noop.New(logger)
	case "command":
		eng, err := command.New(logger)
		if err != nil {
			logger.Warn("speech engine probe failed, using log-only fallback", "error", err)
			return noop.New(logger)
		}
		return eng
	default: // "auto"
		eng, err := command.New(logger)
		if err != nil {
			logger.Info("no speech backend found, using log-only fallback")
			return noop.New(logger)
		}
		return eng
	}
}
