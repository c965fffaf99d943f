package speaker_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tridung778/noti-fin/speaker"
	"github.com/tridung778/noti-fin/speaker/audio"
	"github.com/tridung778/noti-fin/speaker/engines/mock"
)

// newTestSession builds a session around a mock engine with timings fast
// enough that tests don't sleep noticeably. extraChance pins discovery
// behavior: 0 for deterministic baseline-only scans, 1 to force extras.
func newTestSession(t *testing.T, extraChance float64) (*speaker.Session, *mock.Engine, *audio.MockChime) {
	t.Helper()

	cfg := speaker.DefaultConfig()
	cfg.ScanDelay = 0
	cfg.ConnectDelay = 0
	cfg.SettleDelay = 40 * time.Millisecond
	cfg.VoiceTimeout = 50 * time.Millisecond
	cfg.ExtraDeviceChance = extraChance
	cfg.ScanRate = 1000

	eng := mock.New()
	chime := audio.NewMockChime()
	session := speaker.NewSession(eng, cfg, log.Default(),
		speaker.WithRand(rand.New(rand.NewSource(7))),
		speaker.WithChime(chime),
	)
	t.Cleanup(session.Shutdown)
	return session, eng, chime
}

func connectFirstDevice(t *testing.T, s *speaker.Session) speaker.Device {
	t.Helper()
	ctx := context.Background()
	devices, err := s.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) == 0 {
		t.Fatal("scan returned no devices")
	}
	if err := s.Connect(ctx, devices[0]); err != nil {
		t.Fatal(err)
	}
	return devices[0]
}

// TestSpeakWithoutDevice verifies the no-device failure happens before any
// engine call.
func TestSpeakWithoutDevice(t *testing.T) {
	s, eng, chime := newTestSession(t, 0)

	_, err := s.Speak(context.Background(), "hello")
	if !errors.Is(err, speaker.ErrDeviceRequired) {
		t.Fatalf("Speak() = %v, want ErrDeviceRequired", err)
	}
	if eng.SpeakCalls() != 0 {
		t.Errorf("SpeakCalls = %d, want 0", eng.SpeakCalls())
	}
	if chime.Calls() != 0 {
		t.Errorf("chime played %d times before the device check", chime.Calls())
	}
	if s.State() != speaker.StateIdle {
		t.Errorf("State = %s, want idle", s.State())
	}
}

// TestScanConnectSpeak walks the happy path end to end.
func TestScanConnectSpeak(t *testing.T) {
	s, eng, chime := newTestSession(t, 0)
	ctx := context.Background()

	device := connectFirstDevice(t, s)
	if s.State() != speaker.StateConnected {
		t.Fatalf("State = %s after connect, want connected", s.State())
	}
	got := s.ConnectedDevice()
	if got == nil || got.ID != device.ID {
		t.Fatalf("ConnectedDevice = %+v, want %q", got, device.ID)
	}

	spoken, err := s.Speak(ctx, "VCB: payment received for order 42")
	if err != nil {
		t.Fatal(err)
	}
	if spoken != "Đã nhận thanh toán" {
		t.Errorf("spoken = %q, want translated text", spoken)
	}
	if eng.LastUtterance() != spoken {
		t.Errorf("engine got %q, want %q", eng.LastUtterance(), spoken)
	}
	if chime.Calls() != 1 {
		t.Errorf("chime played %d times, want 1", chime.Calls())
	}
	if s.State() != speaker.StateSpeaking {
		t.Errorf("State = %s right after speak, want speaking", s.State())
	}
	if s.LastSpoken() != spoken {
		t.Errorf("LastSpoken = %q, want %q", s.LastSpoken(), spoken)
	}

	waitState(t, s, speaker.StateConnected, time.Second)
	if s.Speaking() {
		t.Error("Speaking() = true after settle")
	}
}

// TestSpeakUntranslatedPassesThrough verifies unmatched text is spoken
// unchanged.
func TestSpeakUntranslatedPassesThrough(t *testing.T) {
	s, eng, _ := newTestSession(t, 0)
	connectFirstDevice(t, s)

	spoken, err := s.Speak(context.Background(), "số dư khả dụng")
	if err != nil {
		t.Fatal(err)
	}
	if spoken != "số dư khả dụng" {
		t.Errorf("spoken = %q, want the input unchanged", spoken)
	}
	if eng.LastUtterance() != spoken {
		t.Errorf("engine got %q", eng.LastUtterance())
	}
}

// TestRapidDoubleSpeak verifies a second speak during the settle window
// stops the first utterance and the session still settles back to connected.
func TestRapidDoubleSpeak(t *testing.T) {
	s, eng, _ := newTestSession(t, 0)
	ctx := context.Background()
	connectFirstDevice(t, s)

	if _, err := s.Speak(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Speak(ctx, "second"); err != nil {
		t.Fatalf("re-entrant speak failed: %v", err)
	}

	if eng.SpeakCalls() != 2 {
		t.Errorf("SpeakCalls = %d, want 2", eng.SpeakCalls())
	}
	if eng.StopCalls() != 1 {
		t.Errorf("StopCalls = %d, want 1", eng.StopCalls())
	}

	waitState(t, s, speaker.StateConnected, time.Second)
	if s.Speaking() {
		t.Error("speaking flag stuck after rapid double speak")
	}
}

// TestSpeakFailureRestoresConnected verifies a dispatch failure drops back
// to the connected state.
func TestSpeakFailureRestoresConnected(t *testing.T) {
	s, eng, _ := newTestSession(t, 0)
	connectFirstDevice(t, s)
	eng.FailSpeak(errors.New("device busy"))

	_, err := s.Speak(context.Background(), "hello")
	if !errors.Is(err, speaker.ErrEngineCallFailed) {
		t.Fatalf("Speak() = %v, want ErrEngineCallFailed", err)
	}
	if s.State() != speaker.StateConnected {
		t.Errorf("State = %s after failed speak, want connected", s.State())
	}
	if s.Speaking() {
		t.Error("Speaking() = true after failed dispatch")
	}
}

// TestConnectWithEmptyList verifies connects fail with ErrNoDevices before
// the first scan populates the registry, so callers can offer a scan or the
// system settings instead.
func TestConnectWithEmptyList(t *testing.T) {
	s, eng, _ := newTestSession(t, 0)

	err := s.Connect(context.Background(), speaker.Device{ID: "spk-kitchen", Name: "Kitchen Speaker"})
	if !errors.Is(err, speaker.ErrNoDevices) {
		t.Fatalf("Connect before any scan = %v, want ErrNoDevices", err)
	}
	if s.State() != speaker.StateIdle {
		t.Errorf("State = %s, want idle", s.State())
	}
	if eng.SpeakCalls() != 0 {
		t.Errorf("SpeakCalls = %d, want 0", eng.SpeakCalls())
	}
}

// TestConnectBlankID verifies a malformed device row is rejected once the
// list is populated.
func TestConnectBlankID(t *testing.T) {
	s, _, _ := newTestSession(t, 0)
	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := s.Connect(context.Background(), speaker.Device{})
	if !errors.Is(err, speaker.ErrEmptyQuery) {
		t.Fatalf("Connect(zero device) = %v, want ErrEmptyQuery", err)
	}
}

// TestDisconnectIdempotent verifies repeated disconnects always land on zero
// connected devices and idle state.
func TestDisconnectIdempotent(t *testing.T) {
	s, _, _ := newTestSession(t, 0)
	connectFirstDevice(t, s)

	for i := 0; i < 3; i++ {
		s.Disconnect()
		if s.ConnectedDevice() != nil {
			t.Fatalf("disconnect %d: still connected", i)
		}
		if s.State() != speaker.StateIdle {
			t.Fatalf("disconnect %d: State = %s, want idle", i, s.State())
		}
	}
}

// TestDisconnectWhileSpeaking verifies disconnecting mid-utterance stops the
// engine.
func TestDisconnectWhileSpeaking(t *testing.T) {
	s, eng, _ := newTestSession(t, 0)
	connectFirstDevice(t, s)

	if _, err := s.Speak(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	s.Disconnect()

	if eng.StopCalls() != 1 {
		t.Errorf("StopCalls = %d, want 1", eng.StopCalls())
	}
	if s.Speaking() {
		t.Error("Speaking() = true after disconnect")
	}
	if s.State() != speaker.StateIdle {
		t.Errorf("State = %s, want idle", s.State())
	}
}

// TestScanReplacesDeviceList verifies rescans replace the list and keep the
// connection.
func TestScanReplacesDeviceList(t *testing.T) {
	s, _, _ := newTestSession(t, 1)
	ctx := context.Background()

	first, err := s.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Connect(ctx, first[0]); err != nil {
		t.Fatal(err)
	}

	second, err := s.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != speaker.StateConnected {
		t.Errorf("State = %s after rescan while connected, want connected", s.State())
	}

	connected := 0
	for _, d := range second {
		if d.State == speaker.Connected {
			connected++
		}
	}
	if connected != 1 {
		t.Errorf("got %d connected devices after rescan, want 1", connected)
	}

	seen := make(map[string]bool)
	for _, d := range second {
		if seen[d.ID] {
			t.Errorf("duplicate device ID %q", d.ID)
		}
		seen[d.ID] = true
	}
}

// TestScanWhileSpeaking verifies scans are rejected mid-utterance.
func TestScanWhileSpeaking(t *testing.T) {
	s, _, _ := newTestSession(t, 0)
	connectFirstDevice(t, s)

	if _, err := s.Speak(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Scan(context.Background()); !errors.Is(err, speaker.ErrInvalidState) {
		t.Errorf("Scan while speaking = %v, want ErrInvalidState", err)
	}
}

// TestForceConnectSynthesizes verifies any non-blank query lands on a
// connected device, synthesizing one if needed.
func TestForceConnectSynthesizes(t *testing.T) {
	s, _, _ := newTestSession(t, 0)

	device, err := s.ForceConnect(context.Background(), "Nonexistent-XYZ")
	if err != nil {
		t.Fatal(err)
	}
	if device.Name != "Nonexistent-XYZ" {
		t.Errorf("Name = %q, want the query", device.Name)
	}
	if !device.Synthesized {
		t.Error("Synthesized = false, want true")
	}
	if device.State != speaker.Connected {
		t.Error("returned device is not marked connected")
	}
	if got := s.ConnectedDevice(); got == nil || got.ID != device.ID {
		t.Error("session not connected to the synthesized device")
	}
	if s.State() != speaker.StateConnected {
		t.Errorf("State = %s, want connected", s.State())
	}
}

// TestForceConnectFindsExisting verifies a known name connects without
// synthesizing.
func TestForceConnectFindsExisting(t *testing.T) {
	s, _, _ := newTestSession(t, 0)

	device, err := s.ForceConnect(context.Background(), "kitchen")
	if err != nil {
		t.Fatal(err)
	}
	if device.Synthesized {
		t.Error("synthesized a device for a known name")
	}
	if device.Name != "Kitchen Speaker" {
		t.Errorf("Name = %q, want Kitchen Speaker", device.Name)
	}
}

// TestForceConnectBlankQuery verifies the one way forceConnect can fail.
func TestForceConnectBlankQuery(t *testing.T) {
	s, _, _ := newTestSession(t, 0)

	if _, err := s.ForceConnect(context.Background(), "   "); !errors.Is(err, speaker.ErrEmptyQuery) {
		t.Errorf("ForceConnect(blank) = %v, want ErrEmptyQuery", err)
	}
	if s.ConnectedDevice() != nil {
		t.Error("blank query produced a connection")
	}
}

// TestCheckSystemConnectionIsAdvisory verifies the prompt carries no state
// change.
func TestCheckSystemConnectionIsAdvisory(t *testing.T) {
	s, _, _ := newTestSession(t, 0)
	before := s.State()

	prompt := s.CheckSystemConnection()
	if prompt.Message == "" || !prompt.OpenSettings {
		t.Errorf("prompt = %+v, want a message offering the settings", prompt)
	}
	if s.State() != before {
		t.Errorf("State changed from %s to %s", before, s.State())
	}
}

// TestLanguagesDeduplicates verifies voice language tags come back distinct
// and in voice order.
func TestLanguagesDeduplicates(t *testing.T) {
	s, eng, _ := newTestSession(t, 0)
	eng.SetVoices([]speaker.Voice{
		{Language: "vi-VN", Name: "North"},
		{Language: "vi-VN", Name: "South"},
		{Language: "en-US", Name: "Plain"},
		{Language: ""},
	})

	got := s.Languages(context.Background())
	want := []string{"vi-VN", "en-US"}
	if len(got) != len(want) {
		t.Fatalf("Languages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Languages[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestAddPhraseThenSpeak verifies user phrases take part in translation.
func TestAddPhraseThenSpeak(t *testing.T) {
	s, eng, _ := newTestSession(t, 0)
	connectFirstDevice(t, s)

	if err := s.AddPhrase("order shipped", "Đơn hàng đã gửi"); err != nil {
		t.Fatal(err)
	}
	spoken, err := s.Speak(context.Background(), "FYI: order shipped this morning")
	if err != nil {
		t.Fatal(err)
	}
	if spoken != "Đơn hàng đã gửi" {
		t.Errorf("spoken = %q", spoken)
	}
	if eng.LastUtterance() != spoken {
		t.Errorf("engine got %q", eng.LastUtterance())
	}
}

// TestAddPhraseRejectsBlank verifies validation surfaces through the
// session.
func TestAddPhraseRejectsBlank(t *testing.T) {
	s, _, _ := newTestSession(t, 0)
	if err := s.AddPhrase("", "Tạm biệt"); !errors.Is(err, speaker.ErrEmptyPhrase) {
		t.Errorf("AddPhrase = %v, want ErrEmptyPhrase", err)
	}
}

// TestChimeFailureDoesNotBlockSpeech verifies a broken chime is swallowed.
func TestChimeFailureDoesNotBlockSpeech(t *testing.T) {
	s, eng, chime := newTestSession(t, 0)
	connectFirstDevice(t, s)
	chime.Fail(errors.New("no audio device"))

	if _, err := s.Speak(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if eng.SpeakCalls() != 1 {
		t.Errorf("SpeakCalls = %d, want 1", eng.SpeakCalls())
	}
}

// TestScanCanceled verifies a canceled context aborts the scan cleanly.
func TestScanCanceled(t *testing.T) {
	s, _, _ := newTestSession(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Scan(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan(canceled) = %v, want context.Canceled", err)
	}
	if s.State() != speaker.StateIdle {
		t.Errorf("State = %s after canceled scan, want idle", s.State())
	}
}

func waitState(t *testing.T, s *speaker.Session, want speaker.SessionState, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for s.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("State = %s, never reached %s", s.State(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
