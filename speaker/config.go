package speaker

import (
	"fmt"
	"time"
)

// Config contains all speaker session configuration options.
type Config struct {
	// Engine selects the speech backend: "auto", "command", or "noop".
	Engine string `yaml:"engine" env:"NOTIFIN_ENGINE"`

	// Speech settings applied during best-effort initialization.
	Language string  `yaml:"language" env:"NOTIFIN_LANGUAGE"`
	Rate     float64 `yaml:"rate" env:"NOTIFIN_RATE"`
	Pitch    float64 `yaml:"pitch" env:"NOTIFIN_PITCH"`

	// VoiceTimeout bounds the engine voice-list query.
	VoiceTimeout time.Duration `yaml:"voice_timeout" env:"NOTIFIN_VOICE_TIMEOUT"`

	// SettleDelay clears the speaking flag this long after a successful
	// dispatch, for engines with no reliable completion signal.
	SettleDelay time.Duration `yaml:"settle_delay" env:"NOTIFIN_SETTLE_DELAY"`

	// Discovery settings.
	ScanDelay         time.Duration `yaml:"scan_delay" env:"NOTIFIN_SCAN_DELAY"`
	ConnectDelay      time.Duration `yaml:"connect_delay" env:"NOTIFIN_CONNECT_DELAY"`
	ExtraDeviceChance float64       `yaml:"extra_device_chance" env:"NOTIFIN_EXTRA_DEVICE_CHANCE"`
	ScanRate          float64       `yaml:"scan_rate" env:"NOTIFIN_SCAN_RATE"`

	// Chime enables the short notification tone before each utterance.
	Chime bool `yaml:"chime" env:"NOTIFIN_CHIME"`

	// PhrasebookPath points at an optional phrases.yml to merge into the
	// built-in dictionary. Empty disables the phrasebook.
	PhrasebookPath string `yaml:"phrasebook" env:"NOTIFIN_PHRASEBOOK"`

	// DefaultDevice is the speaker name used by one-shot speak commands.
	DefaultDevice string `yaml:"default_device" env:"NOTIFIN_DEFAULT_DEVICE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:            "auto",
		Language:          "vi-VN",
		Rate:              0.5,
		Pitch:             1.0,
		VoiceTimeout:      3 * time.Second,
		SettleDelay:       time.Second,
		ScanDelay:         800 * time.Millisecond,
		ConnectDelay:      300 * time.Millisecond,
		ExtraDeviceChance: 0.7,
		ScanRate:          2.0,
		Chime:             true,
		DefaultDevice:     "NotiFin SoundBox",
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	switch c.Engine {
	case "auto", "command", "noop":
	default:
		return fmt.Errorf("unknown engine %q: use auto, command, or noop", c.Engine)
	}
	if c.Language == "" {
		return fmt.Errorf("language must not be empty")
	}
	if c.Rate <= 0 || c.Rate > 3.0 {
		return fmt.Errorf("rate must be in (0, 3.0], got %.2f", c.Rate)
	}
	if c.Pitch <= 0 || c.Pitch > 2.0 {
		return fmt.Errorf("pitch must be in (0, 2.0], got %.2f", c.Pitch)
	}
	if c.VoiceTimeout <= 0 {
		return fmt.Errorf("voice_timeout must be positive, got %v", c.VoiceTimeout)
	}
	if c.SettleDelay <= 0 {
		return fmt.Errorf("settle_delay must be positive, got %v", c.SettleDelay)
	}
	if c.ExtraDeviceChance < 0 || c.ExtraDeviceChance > 1 {
		return fmt.Errorf("extra_device_chance must be in [0, 1], got %.2f", c.ExtraDeviceChance)
	}
	if c.ScanRate <= 0 {
		return fmt.Errorf("scan_rate must be positive, got %.2f", c.ScanRate)
	}
	return nil
}
