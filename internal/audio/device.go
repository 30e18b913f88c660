package audio

import (
	"fmt"
	"time"

	ebitenaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// DefaultBufferSize trades latency for underrun safety.
const DefaultBufferSize = 60 * time.Millisecond

// Device streams a Synth to the sound card through ebiten's audio context.
type Device struct {
	synth  *Synth
	player *ebitenaudio.Player
}

// OpenDevice starts playing synth. Only one audio context may exist per
// process; an existing one is reused when its rate matches.
func OpenDevice(synth *Synth, bufferSize time.Duration) (*Device, error) {
	ctx := ebitenaudio.CurrentContext()
	if ctx == nil {
		ctx = ebitenaudio.NewContext(synth.SampleRate())
	} else if ctx.SampleRate() != synth.SampleRate() {
		return nil, fmt.Errorf("audio context runs at %d Hz, synth at %d Hz: %w", ctx.SampleRate(), synth.SampleRate(), ErrNotReady)
	}

	player, err := ctx.NewPlayer(synth)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}
	if bufferSize > 0 {
		player.SetBufferSize(bufferSize)
	}
	player.Play()

	return &Device{synth: synth, player: player}, nil
}

// Synth returns the synth being played.
func (d *Device) Synth() *Synth {
	return d.synth
}

// Close stops playback and the synth.
func (d *Device) Close() error {
	d.player.Pause()
	if err := d.player.Close(); err != nil {
		return fmt.Errorf("failed to close audio player: %w", err)
	}
	return d.synth.Close()
}
