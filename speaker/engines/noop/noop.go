// Package noop implements the log-only fallback speech engine, used when no
// real backend is available. Every call resolves immediately.
package noop

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/tridung778/noti-fin/speaker"
)

// Compile-time interface check.
var _ speaker.Engine = (*Engine)(nil)

// Engine logs what it would have spoken and succeeds at everything.
type Engine struct {
	logger   *log.Logger
	language string
}

// New creates the log-only engine.
func New(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		logger:   logger.WithPrefix("tts-noop"),
		language: "vi-VN",
	}
}

// Name identifies the engine.
func (e *Engine) Name() string { return "noop" }

// IsAvailable always reports true: the fallback is always usable.
func (e *Engine) IsAvailable() bool { return true }

// SetLanguage records the language for the voice listing.
func (e *Engine) SetLanguage(tag string) error {
	e.language = tag
	return nil
}

// SetRate does nothing.
func (e *Engine) SetRate(float64) error { return nil }

// SetPitch does nothing.
func (e *Engine) SetPitch(float64) error { return nil }

// Speak logs the utterance and resolves immediately.
func (e *Engine) Speak(_ context.Context, text string) error {
	e.logger.Info("would speak", "text", text)
	return nil
}

// Stop does nothing.
func (e *Engine) Stop() error { return nil }

// Voices reports a single voice for the active language.
func (e *Engine) Voices(context.Context) ([]speaker.Voice, error) {
	return []speaker.Voice{{Language: e.language}}, nil
}

// Shutdown does nothing.
func (e *Engine) Shutdown() error { return nil }
