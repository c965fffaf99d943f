// Package speaker pairs the app with a Bluetooth audio speaker and speaks
// payment-notification text aloud, translating common English phrases into
// Vietnamese on the way. It tracks a logical connection only: real pairing
// and audio routing belong to the platform's own Bluetooth settings.
package speaker

import (
	"context"
)

// Engine defines the capability contract for text-to-speech backends.
// Every implementation must be treated as unreliable: callers wrap each
// method in local failure containment.
type Engine interface {
	// Name identifies the engine for logs and status lines.
	Name() string

	// IsAvailable reports whether the engine is usable right now.
	IsAvailable() bool

	// SetLanguage selects the utterance language (BCP 47 tag, e.g. "vi-VN").
	SetLanguage(tag string) error

	// SetRate sets the speech rate (1.0 = normal).
	SetRate(rate float64) error

	// SetPitch sets the voice pitch (1.0 = normal).
	SetPitch(pitch float64) error

	// Speak dispatches an utterance. It returns once the utterance has been
	// handed to the backend; playback may continue after it returns.
	Speak(ctx context.Context, text string) error

	// Stop cancels any in-flight utterance. Fire-and-forget: a failed stop
	// is logged by callers, never escalated.
	Stop() error

	// Voices returns the voices the engine knows about. Implementations may
	// block on slow backends; callers bound the wait themselves.
	Voices(ctx context.Context) ([]Voice, error)

	// Shutdown releases engine resources.
	Shutdown() error
}

// Voice describes a single engine voice.
type Voice struct {
	Language string // BCP 47 language tag, e.g. "vi-VN"
	Name     string // backend voice name, may be empty
}

// Platform abstracts the OS screens this app can only point the user at.
type Platform interface {
	// OpenBluetoothSettings opens the system Bluetooth settings screen.
	OpenBluetoothSettings() error
}

// Prompt is an advisory message for the user, surfaced instead of state
// changes for operations this app cannot actually perform (true link-state
// queries, pairing).
type Prompt struct {
	Message      string
	OpenSettings bool // true if the prompt should offer the settings screen
}
