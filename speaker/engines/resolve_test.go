package engines

import (
	"context"
	"testing"

	"github.com/charmbracelet/log"
)

// TestResolveNoop verifies explicit noop selection.
func TestResolveNoop(t *testing.T) {
	eng := Resolve("noop", log.Default())
	if eng.Name() != "noop" {
		t.Errorf("Name = %q, want noop", eng.Name())
	}
	if !eng.IsAvailable() {
		t.Error("noop engine must always be available")
	}
}

// TestResolveNeverNil verifies every selector yields a usable engine, even
// when no TTS binary is installed.
func TestResolveNeverNil(t *testing.T) {
	for _, name := range []string{"auto", "command", "noop", ""} {
		t.Run("selector_"+name, func(t *testing.T) {
			eng := Resolve(name, log.Default())
			if eng == nil {
				t.Fatal("Resolve returned nil")
			}
			voices, err := eng.Voices(context.Background())
			if err == nil && len(voices) == 0 {
				t.Error("engine reported zero voices without error")
			}
		})
	}
}
