// Package audio plays the short notification chime that precedes each
// spoken announcement.
package audio

import (
	"bytes"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate = 44100
	channels   = 1
)

// Chime plays a fixed two-note tone through the system's default audio
// output. The oto context is created once and reused; Play never blocks on
// playback completion.
type Chime struct {
	context *oto.Context

	mu  sync.Mutex
	pcm []byte // generated once, kept alive for the player
}

// NewChime initializes the audio output and pre-renders the tone.
func NewChime() (*Chime, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio output: %w", err)
	}
	<-ready

	return &Chime{
		context: ctx,
		pcm:     renderTone(),
	}, nil
}

// Play starts the chime and returns immediately.
func (c *Chime) Play() error {
	c.mu.Lock()
	pcm := c.pcm
	c.mu.Unlock()

	player := c.context.NewPlayer(bytes.NewReader(pcm))
	player.Play()

	// Release the player once the tone has drained.
	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		_ = player.Close()
	}()
	return nil
}

// renderTone produces the two-note chime as 16-bit mono PCM: a short E6
// followed by A6, each with a linear fade-out to avoid clicks.
func renderTone() []byte {
	notes := []struct {
		freq float64
		dur  time.Duration
	}{
		{1318.5, 90 * time.Millisecond},
		{1760.0, 140 * time.Millisecond},
	}

	var buf bytes.Buffer
	for _, n := range notes {
		samples := int(n.dur.Seconds() * sampleRate)
		for i := 0; i < samples; i++ {
			fade := 1.0 - float64(i)/float64(samples)
			v := math.Sin(2*math.Pi*n.freq*float64(i)/sampleRate) * fade * 0.4
			s := int16(v * math.MaxInt16)
			buf.WriteByte(byte(s))
			buf.WriteByte(byte(s >> 8))
		}
	}
	return buf.Bytes()
}
