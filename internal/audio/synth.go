package audio

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/resonance/internal/interaction"
)

// DefaultSampleRate is the rate the synth renders at.
const DefaultSampleRate = 48000

// maxNotes bounds the polyphony; the oldest note is dropped beyond it.
const maxNotes = 48

// Waveform is the oscillator shape of a patch.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Noise
)

// Envelope is an ADSR envelope in seconds; Sustain is a level in [0,1].
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Patch is the sound of one voice.
type Patch struct {
	Wave     Waveform
	Envelope Envelope
	// Lowpass sweeps a one-pole filter from Cutoff up by Octaves·envelope.
	// Zero Cutoff disables the filter.
	Cutoff  float64
	Octaves float64
	// Send is the amount routed into the delay line.
	Send float64
}

// DefaultPatches returns the ambient patch set: a slow sine drone, a soft
// triangle lead, a filtered triangle bass and a pink-noise hi-hat.
func DefaultPatches() map[interaction.Voice]Patch {
	return map[interaction.Voice]Patch{
		interaction.VoiceDrone: {Wave: Sine, Envelope: Envelope{Attack: 2, Decay: 1, Sustain: 1, Release: 4}, Send: 1},
		interaction.VoiceSynth: {Wave: Triangle, Envelope: Envelope{Attack: 0.1, Decay: 0.3, Sustain: 0.4, Release: 1}, Send: 1},
		interaction.VoiceBass:  {Wave: Triangle, Envelope: Envelope{Attack: 0.1, Decay: 0.3, Sustain: 0.6, Release: 0.8}, Cutoff: 100, Octaves: 3},
		interaction.VoiceHihat: {Wave: Noise, Envelope: Envelope{Attack: 0.02, Decay: 0.2, Sustain: 0, Release: 0.2}},
	}
}

// note is one sounding oscillator.
type note struct {
	voice interaction.Voice
	patch Patch
	freq  float64
	amp   float64
	phase float64

	age     int // samples since attack
	hold    int // samples until auto release, <0 to sustain
	release int // age at release, <0 while held
	relFrom float64

	lp    float64
	pink  [3]float64
	level float64
}

// Synth is a small polyphonic mixer implementing Backend.
// It is an io.Reader producing 16-bit little-endian stereo frames.
type Synth struct {
	mu         sync.Mutex
	sampleRate float64
	patches    map[interaction.Voice]Patch
	notes      []*note
	rng        *rand.Rand

	gain       float64
	targetGain float64

	delay    []float64
	delayPos int
	feedback float64
	wet      float64

	closed atomic.Bool
}

// NewSynth creates a synth at sampleRate with the default patches and an
// eighth-note delay at 120 bpm.
func NewSynth(sampleRate int) *Synth {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Synth{
		sampleRate: float64(sampleRate),
		patches:    DefaultPatches(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		delay:      make([]float64, sampleRate/4),
		feedback:   0.3,
		wet:        0.2,
	}
}

// SampleRate returns the output rate in Hz.
func (s *Synth) SampleRate() int {
	return int(s.sampleRate)
}

// Active returns how many notes are sounding.
func (s *Synth) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// Gain returns the target master gain.
func (s *Synth) Gain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetGain
}

// TriggerNote starts a note that releases itself after duration.
// A negative pitch plays noise.
func (s *Synth) TriggerNote(voice interaction.Voice, pitch int, duration time.Duration, amplitude float64) error {
	if s.closed.Load() {
		return ErrNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start(voice, pitch, int(duration.Seconds()*s.sampleRate), amplitude)
	return nil
}

// TriggerChordAttack starts one sustained note per pitch.
func (s *Synth) TriggerChordAttack(voice interaction.Voice, pitches []int, amplitude float64) error {
	if s.closed.Load() {
		return ErrNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pitches {
		s.start(voice, p, -1, amplitude)
	}
	return nil
}

// ReleaseAll moves every held note of voice into its release phase.
func (s *Synth) ReleaseAll(voice interaction.Voice) error {
	if s.closed.Load() {
		return ErrNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		if n.voice == voice && n.release < 0 {
			n.release = n.age
			n.relFrom = n.level
		}
	}
	return nil
}

// SetMasterGain sets the output level; changes are smoothed per sample.
func (s *Synth) SetMasterGain(gain float64) error {
	if s.closed.Load() {
		return ErrNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetGain = math.Max(0, math.Min(1, gain))
	return nil
}

// Close stops accepting events. Read keeps producing silence.
func (s *Synth) Close() error {
	s.closed.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = nil
	s.targetGain = 0
	return nil
}

func (s *Synth) start(voice interaction.Voice, pitch, hold int, amplitude float64) {
	if amplitude <= 0 {
		return
	}
	patch, ok := s.patches[voice]
	if !ok {
		return
	}
	if pitch < 0 {
		patch.Wave = Noise
	}
	if len(s.notes) >= maxNotes {
		s.notes = s.notes[1:]
	}
	s.notes = append(s.notes, &note{
		voice:   voice,
		patch:   patch,
		freq:    MIDIToFrequency(pitch),
		amp:     amplitude,
		hold:    hold,
		release: -1,
	})
}

// Read renders whole stereo frames into p. It never returns an error.
func (s *Synth) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < frames; i++ {
		v := s.next()
		pcm := int16(math.Tanh(v) * 32767)
		p[i*4] = byte(pcm)
		p[i*4+1] = byte(pcm >> 8)
		p[i*4+2] = p[i*4]
		p[i*4+3] = p[i*4+1]
	}
	return frames * 4, nil
}

// next renders one mono sample.
func (s *Synth) next() float64 {
	var dry, send float64
	live := s.notes[:0]
	for _, n := range s.notes {
		v, done := s.render(n)
		if done {
			continue
		}
		live = append(live, n)
		dry += v
		send += v * n.patch.Send
	}
	for i := len(live); i < len(s.notes); i++ {
		s.notes[i] = nil
	}
	s.notes = live

	echo := s.delay[s.delayPos]
	s.delay[s.delayPos] = send + echo*s.feedback
	s.delayPos = (s.delayPos + 1) % len(s.delay)

	// About 10ms to reach a new gain.
	s.gain += (s.targetGain - s.gain) * (1 / (0.01 * s.sampleRate))
	return (dry + echo*s.wet) * s.gain
}

// render advances one note by one sample.
func (s *Synth) render(n *note) (float64, bool) {
	if n.hold >= 0 && n.release < 0 && n.age >= n.hold {
		n.release = n.age
		n.relFrom = n.level
	}

	level, done := n.envelope(s.sampleRate)
	if done {
		return 0, true
	}
	n.level = level

	var osc float64
	switch n.patch.Wave {
	case Sine:
		osc = math.Sin(2 * math.Pi * n.phase)
	case Triangle:
		osc = 4*math.Abs(n.phase-0.5) - 1
	case Noise:
		white := s.rng.Float64()*2 - 1
		n.pink[0] = 0.99765*n.pink[0] + white*0.0990460
		n.pink[1] = 0.96300*n.pink[1] + white*0.2965164
		n.pink[2] = 0.57000*n.pink[2] + white*1.0526913
		osc = (n.pink[0] + n.pink[1] + n.pink[2] + white*0.1848) * 0.25
	}
	n.phase += n.freq / s.sampleRate
	n.phase -= math.Floor(n.phase)

	if n.patch.Cutoff > 0 {
		cutoff := n.patch.Cutoff * math.Pow(2, n.patch.Octaves*level)
		k := 1 - math.Exp(-2*math.Pi*cutoff/s.sampleRate)
		n.lp += (osc - n.lp) * k
		osc = n.lp
	}

	n.age++
	return osc * level * n.amp, false
}

// envelope returns the ADSR level at the note's age and whether it has ended.
func (n *note) envelope(rate float64) (float64, bool) {
	env := n.patch.Envelope
	if n.release >= 0 {
		since := float64(n.age-n.release) / rate
		if env.Release <= 0 || since >= env.Release {
			return 0, true
		}
		return n.relFrom * (1 - since/env.Release), false
	}

	t := float64(n.age) / rate
	switch {
	case t < env.Attack:
		return t / env.Attack, false
	case t < env.Attack+env.Decay:
		return 1 - (1-env.Sustain)*(t-env.Attack)/env.Decay, false
	case env.Sustain <= 0:
		// A percussive patch with no sustain ends after its decay.
		return 0, true
	default:
		return env.Sustain, false
	}
}

// MIDIToFrequency converts a MIDI note number to Hz. Negative notes map to 0.
func MIDIToFrequency(note int) float64 {
	if note < 0 {
		return 0
	}
	return 440 * math.Pow(2, float64(note-69)/12)
}
