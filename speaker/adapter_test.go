package speaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tridung778/noti-fin/speaker"
	"github.com/tridung778/noti-fin/speaker/engines/mock"
)

func testAdapterConfig() speaker.Config {
	cfg := speaker.DefaultConfig()
	cfg.VoiceTimeout = 50 * time.Millisecond
	cfg.SettleDelay = 40 * time.Millisecond
	return cfg
}

// TestInitializeGuardsSubSteps verifies that a failing rate set does not
// block the pitch attempt and never fails initialization.
func TestInitializeGuardsSubSteps(t *testing.T) {
	eng := mock.New()
	eng.FailRate(errors.New("rate unsupported"))

	a := speaker.NewAdapter(eng, testAdapterConfig(), log.Default())
	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize() = %v, want nil", err)
	}

	if eng.Language() != "vi-VN" {
		t.Errorf("Language = %q, want vi-VN", eng.Language())
	}
	if eng.Pitch() != 1.0 {
		t.Errorf("Pitch = %v, want 1.0 despite the rate failure", eng.Pitch())
	}
}

// TestSpeakSetsAndSettlesFlag verifies the speaking flag lifecycle on the
// happy path.
func TestSpeakSetsAndSettlesFlag(t *testing.T) {
	eng := mock.New()
	a := speaker.NewAdapter(eng, testAdapterConfig(), log.Default())

	if err := a.Speak(context.Background(), "xin chào"); err != nil {
		t.Fatal(err)
	}
	if !a.Speaking() {
		t.Fatal("Speaking() = false immediately after dispatch, want true")
	}

	waitNotSpeaking(t, a, 500*time.Millisecond)
	if eng.LastUtterance() != "xin chào" {
		t.Errorf("LastUtterance = %q", eng.LastUtterance())
	}
}

// TestSpeakTwiceStopsAndNeverSticks covers rapid re-speak: the first
// utterance is stopped, and the flag still settles.
func TestSpeakTwiceStopsAndNeverSticks(t *testing.T) {
	eng := mock.New()
	a := speaker.NewAdapter(eng, testAdapterConfig(), log.Default())

	ctx := context.Background()
	if err := a.Speak(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	if err := a.Speak(ctx, "second"); err != nil {
		t.Fatal(err)
	}

	if eng.StopCalls() != 1 {
		t.Errorf("StopCalls = %d, want 1 (stop before re-speak)", eng.StopCalls())
	}
	if eng.SpeakCalls() != 2 {
		t.Errorf("SpeakCalls = %d, want 2", eng.SpeakCalls())
	}

	waitNotSpeaking(t, a, 500*time.Millisecond)
}

// TestSpeakFailureClearsFlag verifies a dispatch failure clears the flag
// immediately and wraps ErrEngineCallFailed.
func TestSpeakFailureClearsFlag(t *testing.T) {
	eng := mock.New()
	eng.FailSpeak(errors.New("device busy"))
	a := speaker.NewAdapter(eng, testAdapterConfig(), log.Default())

	err := a.Speak(context.Background(), "hello")
	if !errors.Is(err, speaker.ErrEngineCallFailed) {
		t.Fatalf("Speak() = %v, want ErrEngineCallFailed", err)
	}
	if a.Speaking() {
		t.Error("Speaking() = true after a failed dispatch, want false")
	}
}

// TestStopClearsFlagAndCancelsSettle verifies Stop clears the flag and that
// the superseded settle timer does not fire the settled callback.
func TestStopClearsFlagAndCancelsSettle(t *testing.T) {
	eng := mock.New()
	cfg := testAdapterConfig()
	a := speaker.NewAdapter(eng, cfg, log.Default())

	settled := make(chan struct{}, 4)
	a.SetOnSettled(func() { settled <- struct{}{} })

	if err := a.Speak(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	a.Stop()
	if a.Speaking() {
		t.Fatal("Speaking() = true after Stop, want false")
	}

	select {
	case <-settled:
		t.Error("settled callback fired for a stopped utterance")
	case <-time.After(cfg.SettleDelay * 3):
	}
}

// TestOnSettledFiresForCurrentUtterance verifies the callback fires once the
// active utterance settles.
func TestOnSettledFiresForCurrentUtterance(t *testing.T) {
	eng := mock.New()
	a := speaker.NewAdapter(eng, testAdapterConfig(), log.Default())

	settled := make(chan struct{}, 1)
	a.SetOnSettled(func() { settled <- struct{}{} })

	if err := a.Speak(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-settled:
	case <-time.After(time.Second):
		t.Fatal("settled callback never fired")
	}
}

// TestVoicesFallbackOnTimeout verifies a hung voice query resolves to the
// one-element fallback within the configured window.
func TestVoicesFallbackOnTimeout(t *testing.T) {
	eng := mock.New()
	eng.DelayVoices(2 * time.Second)
	cfg := testAdapterConfig()
	a := speaker.NewAdapter(eng, cfg, log.Default())

	start := time.Now()
	voices := a.Voices(context.Background())
	elapsed := time.Since(start)

	if elapsed < cfg.VoiceTimeout {
		t.Errorf("Voices resolved in %v, before the %v timeout", elapsed, cfg.VoiceTimeout)
	}
	if elapsed > cfg.VoiceTimeout*4 {
		t.Errorf("Voices took %v, want roughly the %v timeout", elapsed, cfg.VoiceTimeout)
	}
	assertFallbackVoices(t, voices)
}

// TestVoicesTimeoutReleasesEngineCall verifies the losing engine goroutine is
// cancelled when the timeout wins, instead of running to its own completion.
func TestVoicesTimeoutReleasesEngineCall(t *testing.T) {
	eng := mock.New()
	eng.DelayVoices(time.Minute)
	cfg := testAdapterConfig()
	a := speaker.NewAdapter(eng, cfg, log.Default())

	assertFallbackVoices(t, a.Voices(context.Background()))

	deadline := time.Now().Add(time.Second)
	for eng.VoicesAborted() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("engine voice query was never cancelled after the timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestVoicesFallbackOnError verifies an engine error resolves to the
// fallback.
func TestVoicesFallbackOnError(t *testing.T) {
	eng := mock.New()
	eng.FailVoices(errors.New("backend gone"))
	a := speaker.NewAdapter(eng, testAdapterConfig(), log.Default())

	assertFallbackVoices(t, a.Voices(context.Background()))
}

// TestVoicesFallbackOnEmpty verifies an empty listing resolves to the
// fallback.
func TestVoicesFallbackOnEmpty(t *testing.T) {
	eng := mock.New()
	eng.SetVoices(nil)
	a := speaker.NewAdapter(eng, testAdapterConfig(), log.Default())

	assertFallbackVoices(t, a.Voices(context.Background()))
}

// TestVoicesPassThrough verifies a healthy engine's listing is returned
// as-is.
func TestVoicesPassThrough(t *testing.T) {
	eng := mock.New()
	a := speaker.NewAdapter(eng, testAdapterConfig(), log.Default())

	voices := a.Voices(context.Background())
	if len(voices) != 2 {
		t.Fatalf("got %d voices, want 2", len(voices))
	}
	if voices[0].Language != "vi-VN" || voices[1].Language != "en-US" {
		t.Errorf("voices = %+v", voices)
	}
}

func assertFallbackVoices(t *testing.T, voices []speaker.Voice) {
	t.Helper()
	if len(voices) != 1 {
		t.Fatalf("got %d voices, want the one-element fallback", len(voices))
	}
	if voices[0].Language != "vi-VN" || voices[0].Name != "" {
		t.Errorf("fallback voice = %+v, want {Language: vi-VN}", voices[0])
	}
}

func waitNotSpeaking(t *testing.T, a *speaker.Adapter, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for a.Speaking() {
		if time.Now().After(deadline) {
			t.Fatal("speaking flag never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
