package speaker

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/log"
)

// systemPlatform opens OS settings screens by shelling out, best-effort.
type systemPlatform struct {
	logger *log.Logger
}

// NewSystemPlatform returns the default Platform implementation for the
// current OS.
func NewSystemPlatform(logger *log.Logger) Platform {
	if logger == nil {
		logger = log.Default()
	}
	return &systemPlatform{logger: logger.WithPrefix("platform")}
}

// OpenBluetoothSettings launches the system Bluetooth settings screen. The
// command is started detached; the caller gets an error only when nothing
// could be launched at all.
func (p *systemPlatform) OpenBluetoothSettings() error {
	var candidates [][]string
	switch runtime.GOOS {
	case "darwin":
		candidates = [][]string{
			{"open", "x-apple.systempreferences:com.apple.BluetoothSettings"},
		}
	case "windows":
		candidates = [][]string{
			{"cmd", "/c", "start", "ms-settings:bluetooth"},
		}
	default:
		candidates = [][]string{
			{"gnome-control-center", "bluetooth"},
			{"blueman-manager"},
		}
	}

	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err != nil {
			continue
		}
		if err := exec.Command(c[0], c[1:]...).Start(); err != nil {
			p.logger.Debug("settings launcher failed", "command", c[0], "error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("no bluetooth settings launcher found for %s", runtime.GOOS)
}
