package interaction

import (
	"fmt"
	"time"
)

// Voice identifies one independently triggerable audio part.
type Voice string

const (
	VoiceSynth Voice = "synth"
	VoiceBass  Voice = "bass"
	VoiceHihat Voice = "hihat"
	VoiceDrone Voice = "drone"
)

// Voices lists every voice in release order.
var Voices = []Voice{VoiceDrone, VoiceSynth, VoiceBass, VoiceHihat}

// Trigger is the rate limiter of one voice.
type Trigger struct {
	Last        time.Time
	MinInterval time.Duration
	fired       bool
}

// Ready reports whether the voice may fire at now.
func (t *Trigger) Ready(now time.Time) bool {
	return !t.fired || now.Sub(t.Last) >= t.MinInterval
}

// Record marks the voice as fired at now.
func (t *Trigger) Record(now time.Time) {
	t.Last = now
	t.fired = true
}

// Reset forgets the last trigger.
func (t *Trigger) Reset() {
	t.Last = time.Time{}
	t.fired = false
}

// EventKind is the audio backend call an Event maps to.
type EventKind int

const (
	EventNote EventKind = iota
	EventChord
	EventRelease
	EventGain
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventNote:
		return "note"
	case EventChord:
		return "chord"
	case EventRelease:
		return "release"
	case EventGain:
		return "gain"
	default:
		return "unknown"
	}
}

// NoisePitch marks an unpitched note.
const NoisePitch = -1

// Event is one fire-and-forget request for the audio backend.
type Event struct {
	Kind      EventKind
	Voice     Voice
	Pitch     int   // MIDI note, NoisePitch for noise
	Pitches   []int // chord notes for EventChord
	Duration  time.Duration
	Amplitude float64 // EventNote and EventChord
	Gain      float64 // EventGain
}

func (e Event) String() string {
	switch e.Kind {
	case EventNote:
		return fmt.Sprintf("%s note %d amp=%.3f dur=%s", e.Voice, e.Pitch, e.Amplitude, e.Duration)
	case EventChord:
		return fmt.Sprintf("%s chord %v amp=%.3f", e.Voice, e.Pitches, e.Amplitude)
	case EventRelease:
		return fmt.Sprintf("%s release", e.Voice)
	case EventGain:
		return fmt.Sprintf("gain %.3f", e.Gain)
	default:
		return "unknown event"
	}
}
