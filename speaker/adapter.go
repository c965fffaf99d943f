package speaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Adapter wraps a speech Engine with the failure-containment policy the
// session relies on: initialization always completes, voice queries never
// hang, and the speaking flag never sticks.
type Adapter struct {
	engine Engine
	cfg    Config
	logger *log.Logger

	mu       sync.Mutex
	speaking bool
	// generation guards the settle timer: a new speak invalidates the
	// previous timer so a stale callback can't clear the fresh flag.
	generation uint64
	onSettled  func()
}

// NewAdapter creates an adapter around an already-resolved engine.
func NewAdapter(engine Engine, cfg Config, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{
		engine: engine,
		cfg:    cfg,
		logger: logger.WithPrefix("speech"),
	}
}

// Initialize best-effort configures the engine. Each sub-step is guarded
// independently: a failed rate set must not prevent the pitch attempt, and
// no individual failure aborts initialization. Always returns nil.
func (a *Adapter) Initialize() error {
	if err := a.engine.SetLanguage(a.cfg.Language); err != nil {
		a.logger.Warn("set language failed", "language", a.cfg.Language, "error", err)
	}
	if err := a.engine.SetRate(a.cfg.Rate); err != nil {
		a.logger.Warn("set rate failed", "rate", a.cfg.Rate, "error", err)
	}
	if err := a.engine.SetPitch(a.cfg.Pitch); err != nil {
		a.logger.Warn("set pitch failed", "pitch", a.cfg.Pitch, "error", err)
	}
	return nil
}

// Speak dispatches an utterance. An in-flight utterance is stopped first
// (a failed stop is swallowed). The speaking flag is set for the duration
// and cleared either on dispatch failure or after the settle delay.
func (a *Adapter) Speak(ctx context.Context, text string) error {
	a.mu.Lock()
	if a.speaking {
		if err := a.engine.Stop(); err != nil {
			a.logger.Debug("stop before re-speak failed", "error", err)
		}
	}
	a.generation++
	gen := a.generation
	a.speaking = true
	a.mu.Unlock()

	err := a.engine.Speak(ctx, text)
	if err != nil {
		a.mu.Lock()
		if a.generation == gen {
			a.speaking = false
		}
		a.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrEngineCallFailed, err)
	}

	time.AfterFunc(a.cfg.SettleDelay, func() {
		a.mu.Lock()
		settled := a.generation == gen
		if settled {
			a.speaking = false
		}
		cb := a.onSettled
		a.mu.Unlock()
		if settled && cb != nil {
			cb()
		}
	})
	return nil
}

// SetOnSettled registers a callback invoked after the settle delay clears
// the speaking flag. Stale timers from superseded utterances never fire it.
func (a *Adapter) SetOnSettled(fn func()) {
	a.mu.Lock()
	a.onSettled = fn
	a.mu.Unlock()
}

// Stop cancels any in-flight utterance and clears the speaking flag.
// Failure to cancel is logged, not propagated.
func (a *Adapter) Stop() {
	a.mu.Lock()
	a.generation++
	a.speaking = false
	a.mu.Unlock()

	if err := a.engine.Stop(); err != nil {
		a.logger.Debug("stop failed", "error", err)
	}
}

// Speaking reports whether an utterance is conceptually in flight.
func (a *Adapter) Speaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speaking
}

// Voices lists the engine's voices, raced against the configured timeout so
// a stuck backend can never hang the caller. On timeout or error it returns
// the one-element fallback for the configured language. The engine call runs
// on its own cancelable context so a losing goroutine is released instead of
// left running against the caller's ctx.
func (a *Adapter) Voices(ctx context.Context) []Voice {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		voices []Voice
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := a.engine.Voices(ctx)
		ch <- result{v, err}
	}()

	timer := time.NewTimer(a.cfg.VoiceTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			a.logger.Warn("voice query failed", "error", r.err)
			return a.fallbackVoices()
		}
		if len(r.voices) == 0 {
			return a.fallbackVoices()
		}
		return r.voices
	case <-timer.C:
		a.logger.Warn("voice query timed out", "timeout", a.cfg.VoiceTimeout)
		return a.fallbackVoices()
	case <-ctx.Done():
		return a.fallbackVoices()
	}
}

func (a *Adapter) fallbackVoices() []Voice {
	return []Voice{{Language: a.cfg.Language}}
}

// EngineName identifies the active engine for status lines.
func (a *Adapter) EngineName() string {
	return a.engine.Name()
}

// Shutdown releases the underlying engine.
func (a *Adapter) Shutdown() {
	if err := a.engine.Shutdown(); err != nil {
		a.logger.Debug("engine shutdown failed", "error", err)
	}
}
