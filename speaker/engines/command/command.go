// Package command implements a speech engine backed by the platform's
// command-line TTS tool (espeak-ng, say, or PowerShell's speech synthesizer).
package command

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tridung778/noti-fin/speaker"
)

// baseWordsPerMinute anchors the rate multiplier (1.0 = normal speech).
const baseWordsPerMinute = 175

type backend int

const (
	backendEspeak backend = iota
	backendSay
	backendPowershell
)

// Engine shells out to the platform TTS tool. Utterances run as child
// processes tracked for cancellation.
type Engine struct {
	binary  string
	backend backend
	logger  *log.Logger

	mu       sync.Mutex
	language string
	rate     float64
	pitch    float64
	current  *exec.Cmd // in-flight utterance, nil when idle
	closed   bool
}

// New probes for a usable TTS binary and returns the engine, or
// ErrEngineUnavailable when none is present.
func New(logger *log.Logger) (*Engine, error) {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		logger:   logger.WithPrefix("tts-cmd"),
		language: "vi-VN",
		rate:     1.0,
		pitch:    1.0,
	}

	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("say"); err == nil {
			e.binary, e.backend = path, backendSay
			return e, nil
		}
	case "windows":
		if path, err := exec.LookPath("powershell"); err == nil {
			e.binary, e.backend = path, backendPowershell
			return e, nil
		}
	default:
		for _, bin := range []string{"espeak-ng", "espeak"} {
			if path, err := exec.LookPath(bin); err == nil {
				e.binary, e.backend = path, backendEspeak
				return e, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no TTS binary found for %s", speaker.ErrEngineUnavailable, runtime.GOOS)
}

// Name identifies the engine.
func (e *Engine) Name() string {
	return "command:" + e.binary
}

// IsAvailable reports whether the engine can accept utterances.
func (e *Engine) IsAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed
}

// SetLanguage selects the utterance language.
func (e *Engine) SetLanguage(tag string) error {
	if tag == "" {
		return fmt.Errorf("empty language tag")
	}
	e.mu.Lock()
	e.language = tag
	e.mu.Unlock()
	return nil
}

// SetRate sets the speech rate multiplier.
func (e *Engine) SetRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("rate must be positive, got %.2f", rate)
	}
	e.mu.Lock()
	e.rate = rate
	e.mu.Unlock()
	return nil
}

// SetPitch sets the voice pitch multiplier.
func (e *Engine) SetPitch(pitch float64) error {
	if pitch <= 0 {
		return fmt.Errorf("pitch must be positive, got %.2f", pitch)
	}
	e.mu.Lock()
	e.pitch = pitch
	e.mu.Unlock()
	return nil
}

// Speak starts the utterance as a child process and returns once it has been
// dispatched. The process is owned by the engine, not the dispatch ctx:
// playback continues after Speak returns and is cancelled only through Stop
// or Shutdown.
func (e *Engine) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("engine is shut down")
	}
	cmd := e.utteranceCmd(text)
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("unable to start %s: %w", e.binary, err)
	}
	e.current = cmd
	e.mu.Unlock()

	go func() {
		err := cmd.Wait()
		e.mu.Lock()
		if e.current == cmd {
			e.current = nil
		}
		e.mu.Unlock()
		if err != nil {
			e.logger.Debug("utterance process exited", "error", err)
		}
	}()
	return nil
}

// utteranceCmd builds the platform-specific speak command. Caller holds e.mu.
func (e *Engine) utteranceCmd(text string) *exec.Cmd {
	wpm := int(e.rate * baseWordsPerMinute)
	switch e.backend {
	case backendSay:
		return exec.Command(e.binary, "-r", fmt.Sprint(wpm), text)
	case backendPowershell:
		script := fmt.Sprintf(
			"Add-Type -AssemblyName System.Speech; "+
				"$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; "+
				"$s.Rate = %d; $s.Speak(%s)",
			int((e.rate-1.0)*10), powershellQuote(text))
		return exec.Command(e.binary, "-NoProfile", "-Command", script)
	default:
		// espeak pitch runs 0–99 with 50 as normal.
		voice := strings.SplitN(e.language, "-", 2)[0]
		return exec.Command(e.binary,
			"-v", voice,
			"-s", fmt.Sprint(wpm),
			"-p", fmt.Sprint(int(e.pitch*50)),
			text)
	}
}

func powershellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Stop kills the in-flight utterance process, if any.
func (e *Engine) Stop() error {
	e.mu.Lock()
	cmd := e.current
	e.current = nil
	e.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("unable to stop utterance: %w", err)
	}
	return nil
}

// Voices lists the backend's voices. Only the espeak and say backends expose
// a listing command; others report a single voice for the active language.
func (e *Engine) Voices(ctx context.Context) ([]speaker.Voice, error) {
	e.mu.Lock()
	language := e.language
	e.mu.Unlock()

	switch e.backend {
	case backendEspeak:
		out, err := exec.CommandContext(ctx, e.binary, "--voices").Output()
		if err != nil {
			return nil, fmt.Errorf("voice listing failed: %w", err)
		}
		return parseEspeakVoices(out), nil
	case backendSay:
		out, err := exec.CommandContext(ctx, e.binary, "-v", "?").Output()
		if err != nil {
			return nil, fmt.Errorf("voice listing failed: %w", err)
		}
		return parseSayVoices(out), nil
	default:
		return []speaker.Voice{{Language: language}}, nil
	}
}

// parseEspeakVoices reads `espeak --voices` output: a header line followed by
// columns where the 2nd is the language code and the 4th the voice name.
func parseEspeakVoices(out []byte) []speaker.Voice {
	var voices []speaker.Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, speaker.Voice{Language: fields[1], Name: fields[3]})
	}
	return voices
}

// parseSayVoices reads `say -v ?` output: "Name  lang_TAG  # comment".
func parseSayVoices(out []byte) []speaker.Voice {
	var voices []speaker.Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		voices = append(voices, speaker.Voice{
			Name:     fields[0],
			Language: strings.ReplaceAll(fields[1], "_", "-"),
		})
	}
	return voices
}

// Shutdown stops any utterance and marks the engine closed.
func (e *Engine) Shutdown() error {
	_ = e.Stop()
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}
