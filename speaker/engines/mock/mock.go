// Package mock provides a mock speech engine for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/tridung778/noti-fin/speaker"
)

// Compile-time interface check.
var _ speaker.Engine = (*Engine)(nil)

// Engine implements the speech engine interface for testing. Every call is
// counted, and failures and voice-query hangs are configurable.
type Engine struct {
	mu sync.Mutex

	// Control for testing
	speakErr    error
	stopErr     error
	languageErr error
	rateErr     error
	pitchErr    error
	voicesErr   error
	voicesDelay time.Duration // 0 resolves immediately; use a long delay to simulate a hang
	voices      []speaker.Voice

	// State
	available bool
	language  string
	rate      float64
	pitch     float64

	speakCalls    int
	stopCalls     int
	voicesCalls   int
	voicesAborted int
	lastUtterance string
}

// New creates a mock engine that succeeds at everything.
func New() *Engine {
	return &Engine{
		available: true,
		voices: []speaker.Voice{
			{Language: "vi-VN", Name: "Mock Vietnamese"},
			{Language: "en-US", Name: "Mock English"},
		},
	}
}

// Name identifies the engine.
func (e *Engine) Name() string { return "mock" }

// IsAvailable returns the configured availability.
func (e *Engine) IsAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// SetLanguage records the language or fails if configured.
func (e *Engine) SetLanguage(tag string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.languageErr != nil {
		return e.languageErr
	}
	e.language = tag
	return nil
}

// SetRate records the rate or fails if configured.
func (e *Engine) SetRate(rate float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rateErr != nil {
		return e.rateErr
	}
	e.rate = rate
	return nil
}

// SetPitch records the pitch or fails if configured.
func (e *Engine) SetPitch(pitch float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pitchErr != nil {
		return e.pitchErr
	}
	e.pitch = pitch
	return nil
}

// Speak counts the call and records the utterance.
func (e *Engine) Speak(_ context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speakCalls++
	if e.speakErr != nil {
		return e.speakErr
	}
	e.lastUtterance = text
	return nil
}

// Stop counts the call.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCalls++
	return e.stopErr
}

// Voices returns the configured voices after the configured delay, honoring
// ctx cancellation during the wait.
func (e *Engine) Voices(ctx context.Context) ([]speaker.Voice, error) {
	e.mu.Lock()
	e.voicesCalls++
	delay := e.voicesDelay
	voices := append([]speaker.Voice(nil), e.voices...)
	err := e.voicesErr
	e.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			e.mu.Lock()
			e.voicesAborted++
			e.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return voices, nil
}

// Shutdown marks the engine unavailable.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = false
	return nil
}

// Test control methods

// FailSpeak configures Speak to fail with err.
func (e *Engine) FailSpeak(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speakErr = err
}

// FailStop configures Stop to fail with err.
func (e *Engine) FailStop(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopErr = err
}

// FailRate configures SetRate to fail with err.
func (e *Engine) FailRate(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rateErr = err
}

// FailVoices configures Voices to fail with err.
func (e *Engine) FailVoices(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voicesErr = err
}

// DelayVoices makes Voices block for d before resolving.
func (e *Engine) DelayVoices(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voicesDelay = d
}

// SetVoices replaces the voice listing.
func (e *Engine) SetVoices(voices []speaker.Voice) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voices = voices
}

// SpeakCalls returns the number of Speak calls.
func (e *Engine) SpeakCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speakCalls
}

// StopCalls returns the number of Stop calls.
func (e *Engine) StopCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopCalls
}

// VoicesCalls returns the number of Voices calls.
func (e *Engine) VoicesCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voicesCalls
}

// VoicesAborted returns the number of Voices calls cancelled mid-wait.
func (e *Engine) VoicesAborted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voicesAborted
}

// LastUtterance returns the text of the most recent successful Speak.
func (e *Engine) LastUtterance() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUtterance
}

// Pitch returns the last pitch set on the engine.
func (e *Engine) Pitch() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pitch
}

// Language returns the last language set on the engine.
func (e *Engine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.language
}
