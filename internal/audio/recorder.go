package audio

import (
	"sync"
	"time"

	"github.com/ayusman/resonance/internal/interaction"
)

// Call is one request received by a Recorder.
type Call struct {
	Method    string
	Voice     interaction.Voice
	Pitch     int
	Pitches   []int
	Duration  time.Duration
	Amplitude float64
	Gain      float64
}

// Recorder is a Backend that remembers every call.
// It allows tests to inject an error for all subsequent calls.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	err   error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetError sets the error returned by every call; nil restores success.
// Failed calls are still recorded.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset forgets the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// TriggerNote records a note.
func (r *Recorder) TriggerNote(voice interaction.Voice, pitch int, duration time.Duration, amplitude float64) error {
	return r.record(Call{Method: "TriggerNote", Voice: voice, Pitch: pitch, Duration: duration, Amplitude: amplitude})
}

// TriggerChordAttack records a chord attack.
func (r *Recorder) TriggerChordAttack(voice interaction.Voice, pitches []int, amplitude float64) error {
	ps := make([]int, len(pitches))
	copy(ps, pitches)
	return r.record(Call{Method: "TriggerChordAttack", Voice: voice, Pitches: ps, Amplitude: amplitude})
}

// ReleaseAll records a release.
func (r *Recorder) ReleaseAll(voice interaction.Voice) error {
	return r.record(Call{Method: "ReleaseAll", Voice: voice})
}

// SetMasterGain records a gain change.
func (r *Recorder) SetMasterGain(gain float64) error {
	return r.record(Call{Method: "SetMasterGain", Gain: gain})
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return r.err
}
