package speaker

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Chime plays a short notification tone before an utterance.
type Chime interface {
	Play() error
}

// Session is the aggregate exposed to the UI and notification layers: the
// device list, the single connected device, the speech state, and the phrase
// dictionary. It is owned exclusively by this manager; no other component
// mutates it directly.
type Session struct {
	cfg        Config
	registry   *Registry
	translator *Translator
	adapter    *Adapter
	machine    *StateMachine
	platform   Platform
	chime      Chime
	logger     *log.Logger

	mu         sync.Mutex
	lastSpoken string
}

// Option configures a Session.
type Option func(*Session)

// WithRand pins the discovery randomness, for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.registry = NewRegistry(s.cfg, rng)
	}
}

// WithPlatform injects the OS settings capability.
func WithPlatform(p Platform) Option {
	return func(s *Session) { s.platform = p }
}

// WithChime injects the notification tone player.
func WithChime(c Chime) Option {
	return func(s *Session) { s.chime = c }
}

// NewSession composes the registry, translator, and speech adapter around an
// already-resolved engine. Engine initialization is best-effort and never
// fails the constructor.
func NewSession(engine Engine, cfg Config, logger *log.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = log.Default()
	}
	s := &Session{
		cfg:        cfg,
		registry:   NewRegistry(cfg, nil),
		translator: NewTranslator(),
		adapter:    NewAdapter(engine, cfg, logger),
		machine:    NewStateMachine(),
		logger:     logger.WithPrefix("session"),
	}
	for _, opt := range opts {
		opt(s)
	}

	_ = s.adapter.Initialize()
	s.adapter.SetOnSettled(s.onSpeechSettled)
	return s
}

// Scan runs a discovery pass and replaces the device list wholesale. The
// scan delay models radio time; the call is bounded by it plus the rate
// limiter and resolves early when ctx is done.
func (s *Session) Scan(ctx context.Context) ([]Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanLocked(ctx)
}

func (s *Session) scanLocked(ctx context.Context) ([]Device, error) {
	prev := s.machine.Current()
	if prev == StateSpeaking {
		return nil, fmt.Errorf("%w: cannot scan while speaking", ErrInvalidState)
	}
	if prev != StateScanning && !s.machine.Transition(StateScanning) {
		return nil, fmt.Errorf("%w: cannot scan from %s", ErrInvalidState, prev)
	}

	if err := sleepCtx(ctx, s.cfg.ScanDelay); err != nil {
		s.settleScanState()
		return nil, err
	}

	devices, err := s.registry.Discover(ctx)
	s.settleScanState()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scan complete", "devices", len(devices))
	return devices, nil
}

// settleScanState leaves Scanning for Connected or Idle depending on whether
// the logical connection survived the pass.
func (s *Session) settleScanState() {
	if s.machine.Current() != StateScanning {
		return
	}
	if s.registry.Connected() != nil {
		s.machine.Transition(StateConnected)
	} else {
		s.machine.Transition(StateIdle)
	}
}

// Connect establishes the logical connection to the given device. With an
// empty device list it fails with ErrNoDevices so the caller can offer a
// scan or the system settings instead of a silent no-op.
func (s *Session) Connect(ctx context.Context, device Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx, device)
}

func (s *Session) connectLocked(ctx context.Context, device Device) error {
	if len(s.registry.Devices()) == 0 {
		return ErrNoDevices
	}
	if device.ID == "" {
		return fmt.Errorf("%w: device has no identifier", ErrEmptyQuery)
	}

	prev := s.machine.Current()
	if !s.machine.Transition(StateConnecting) {
		return fmt.Errorf("%w: cannot connect from %s", ErrInvalidState, prev)
	}

	if err := sleepCtx(ctx, s.cfg.ConnectDelay); err != nil {
		s.machine.Transition(StateIdle)
		return err
	}

	s.registry.SetConnected(device)
	s.machine.Transition(StateConnected)
	s.logger.Info("connected", "device", device.Name, "id", device.ID, "synthesized", device.Synthesized)
	return nil
}

// Disconnect drops the logical connection. Idempotent: it always results in
// zero connected devices regardless of prior state.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Current() == StateSpeaking {
		s.adapter.Stop()
	}
	s.registry.ClearConnected()
	switch s.machine.Current() {
	case StateConnected, StateSpeaking:
		s.machine.Transition(StateIdle)
	}
	s.logger.Info("disconnected")
}

// Speak translates the text and dispatches it to the speech engine. It
// fails immediately with ErrDeviceRequired when no device is connected and
// performs no engine call in that case. It returns the text actually spoken.
func (s *Session) Speak(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.Connected() == nil {
		return "", ErrDeviceRequired
	}

	// Re-entrant speak: the adapter stops the in-flight utterance itself,
	// so Speaking is a legal re-entry point here.
	if cur := s.machine.Current(); cur != StateSpeaking {
		if !s.machine.Transition(StateSpeaking) {
			return "", fmt.Errorf("%w: cannot speak from %s", ErrInvalidState, cur)
		}
	}

	if s.cfg.Chime && s.chime != nil {
		if err := s.chime.Play(); err != nil {
			s.logger.Debug("chime failed", "error", err)
		}
	}

	spoken := s.translator.Translate(text)
	if err := s.adapter.Speak(ctx, spoken); err != nil {
		s.machine.Transition(StateConnected)
		return "", err
	}

	s.lastSpoken = spoken
	s.logger.Info("speaking", "text", spoken)
	return spoken, nil
}

// onSpeechSettled runs when the adapter clears the speaking flag after the
// settle delay.
func (s *Session) onSpeechSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.Current() == StateSpeaking {
		s.machine.Transition(StateConnected)
	}
}

// ForceConnect guarantees some connected device for any non-blank query: it
// searches the current registry, rescans and searches again, and finally
// synthesizes a placeholder device under the given name. Synthesized
// connections are flagged on the returned device.
func (s *Session) ForceConnect(ctx context.Context, query string) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		return Device{}, ErrEmptyQuery
	}

	device := s.registry.FindByNameOrAddress(query)
	if device == nil {
		if _, err := s.scanLocked(ctx); err != nil {
			s.logger.Debug("forced rescan failed", "error", err)
		}
		device = s.registry.FindByNameOrAddress(query)
	}
	if device == nil {
		d := s.registry.UpsertSynthesized(query)
		device = &d
		s.logger.Warn("synthesized placeholder device", "name", query, "id", d.ID)
	}

	if err := s.connectLocked(ctx, *device); err != nil {
		return Device{}, err
	}
	return *s.registry.Connected(), nil
}

// CheckSystemConnection is advisory only: this app cannot query true
// physical link state, so it surfaces a prompt pointing at the system
// Bluetooth settings without changing session state.
func (s *Session) CheckSystemConnection() Prompt {
	return Prompt{
		Message:      "Pairing and audio routing are managed by the system. Check the Bluetooth settings to verify the physical connection.",
		OpenSettings: true,
	}
}

// OpenBluetoothSettings opens the platform Bluetooth settings screen,
// best-effort.
func (s *Session) OpenBluetoothSettings() error {
	if s.platform == nil {
		return fmt.Errorf("no platform settings capability available")
	}
	if err := s.platform.OpenBluetoothSettings(); err != nil {
		return fmt.Errorf("unable to open bluetooth settings: %w", err)
	}
	return nil
}

// AddPhrase inserts or overwrites a dictionary entry.
func (s *Session) AddPhrase(english, vietnamese string) error {
	return s.translator.AddPhrase(english, vietnamese)
}

// Translate exposes the phrase dictionary lookup without speaking.
func (s *Session) Translate(text string) string {
	return s.translator.Translate(text)
}

// Languages returns the distinct language tags of the available voices, in
// voice order. Bounded by the adapter's voice timeout.
func (s *Session) Languages(ctx context.Context) []string {
	voices := s.adapter.Voices(ctx)
	seen := make(map[string]bool, len(voices))
	var out []string
	for _, v := range voices {
		if v.Language == "" || seen[v.Language] {
			continue
		}
		seen[v.Language] = true
		out = append(out, v.Language)
	}
	return out
}

// Devices returns a copy of the current device list.
func (s *Session) Devices() []Device {
	return s.registry.Devices()
}

// ConnectedDevice returns a copy of the connected device, or nil.
func (s *Session) ConnectedDevice() *Device {
	return s.registry.Connected()
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Speaking reports whether an utterance is conceptually in flight.
func (s *Session) Speaking() bool {
	return s.adapter.Speaking()
}

// LastSpoken returns the most recently dispatched utterance.
func (s *Session) LastSpoken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSpoken
}

// EngineName identifies the active speech engine.
func (s *Session) EngineName() string {
	return s.adapter.EngineName()
}

// Phrases returns the phrase dictionary in match order.
func (s *Session) Phrases() []Phrase {
	return s.translator.Phrases()
}

// Shutdown stops any speech and releases the engine.
func (s *Session) Shutdown() {
	s.adapter.Stop()
	s.adapter.Shutdown()
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
