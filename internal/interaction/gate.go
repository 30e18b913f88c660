// Package interaction classifies each tick as interactive or idle, fades the
// master volume after an idle timeout, and rate-limits voice triggers.
package interaction

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/resonance/internal/landmark"
	"github.com/ayusman/resonance/internal/proximity"
)

// Config holds the gate thresholds and voice tables.
type Config struct {
	// VelocityThreshold is the index fingertip speed, in pixels per tick,
	// that counts as interaction.
	VelocityThreshold float64 `yaml:"velocity_threshold"`
	// ProximityJump is the per-tick proximity change that counts as interaction.
	ProximityJump float64 `yaml:"proximity_jump"`
	// IdleTimeout is how long the gate waits without interaction before fading.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	RiseRate    float64       `yaml:"rise_rate"`
	FallRate    float64       `yaml:"fall_rate"`
	// SilenceFloor snaps a fading volume to 0 and mutes volume-gated voices.
	SilenceFloor float64 `yaml:"silence_floor"`

	Synth VoiceConfig `yaml:"synth"`
	Bass  VoiceConfig `yaml:"bass"`
	Hihat VoiceConfig `yaml:"hihat"`
	Drone VoiceConfig `yaml:"drone"`

	// SynthVelocity is the fingertip speed needed for a synth note.
	SynthVelocity float64 `yaml:"synth_velocity"`
	// BassProximity is the proximity needed for a bass note.
	BassProximity float64 `yaml:"bass_proximity"`
	// HihatEvery is the frame cadence of the hi-hat.
	HihatEvery uint64 `yaml:"hihat_every"`
}

// VoiceConfig is the timing and level of one voice.
type VoiceConfig struct {
	MinInterval time.Duration `yaml:"min_interval"`
	Amplitude   float64       `yaml:"amplitude"`
	Duration    time.Duration `yaml:"duration"`
	// Low and High bound the pitch range, in MIDI notes.
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

// DefaultConfig returns the gate tuned for a 120 bpm ambient patch.
func DefaultConfig() Config {
	return Config{
		VelocityThreshold: 20,
		ProximityJump:     0.15,
		IdleTimeout:       5 * time.Second,
		RiseRate:          0.2,
		FallRate:          0.05,
		SilenceFloor:      0.01,

		// Half note at 120 bpm.
		Synth: VoiceConfig{MinInterval: 100 * time.Millisecond, Amplitude: 0.3, Duration: time.Second, Low: 60, High: 72},
		// Whole note.
		Bass: VoiceConfig{MinInterval: 200 * time.Millisecond, Amplitude: 0.7, Duration: 2 * time.Second, Low: 36, High: 48},
		// Sixteenth note.
		Hihat: VoiceConfig{MinInterval: 50 * time.Millisecond, Amplitude: 0.2, Duration: 125 * time.Millisecond},
		Drone: VoiceConfig{MinInterval: 4 * time.Second, Amplitude: 0.1, Low: 48, High: 60},

		SynthVelocity: 15,
		BassProximity: 0.3,
		HihatEvery:    16,
	}
}

// DroneIntervals are the chord intervals stacked on the drone root.
var DroneIntervals = []int{0, 7, 12, 16}

// State is the interaction state owned by the gate.
type State struct {
	Session         uuid.UUID
	LastInteraction time.Time
	Volume          float64
	LastTips        [landmark.MaxHands]*landmark.Vec
	LastProximity   float64
}

// Input is one tick's worth of gate input.
type Input struct {
	Now       time.Time
	Frame     uint64
	Snapshot  *landmark.Snapshot
	Viewport  landmark.Viewport
	Proximity float64
}

// Result describes one tick of the gate.
type Result struct {
	Interacting bool
	Velocities  [landmark.MaxHands]float64
	Volume      float64
	// Events is only valid until the next call to Tick, Activate or Deactivate.
	Events []Event
}

// Gate is the interaction and sound trigger state machine.
// It is not safe for concurrent use.
type Gate struct {
	config   Config
	active   bool
	state    State
	triggers map[Voice]*Trigger
	events   []Event
}

// New creates an inactive gate.
func New(config Config) *Gate {
	g := &Gate{
		config: config,
		triggers: map[Voice]*Trigger{
			VoiceSynth: {MinInterval: config.Synth.MinInterval},
			VoiceBass:  {MinInterval: config.Bass.MinInterval},
			VoiceHihat: {MinInterval: config.Hihat.MinInterval},
			VoiceDrone: {MinInterval: config.Drone.MinInterval},
		},
	}
	return g
}

// Active reports whether sound processing is on.
func (g *Gate) Active() bool {
	return g.active
}

// State returns a copy of the interaction state.
func (g *Gate) State() State {
	return g.state
}

// Trigger returns the rate limiter of v.
func (g *Gate) Trigger(v Voice) Trigger {
	if t, ok := g.triggers[v]; ok {
		return *t
	}
	return Trigger{}
}

// Activate starts a new sound session at full volume. proximity is the
// current state, so a steady proximity does not read as a jump on the
// first tick.
func (g *Gate) Activate(now time.Time, proximity float64) uuid.UUID {
	g.reset()
	g.active = true
	g.state.Session = uuid.New()
	g.state.LastInteraction = now
	g.state.LastProximity = proximity
	g.state.Volume = 1
	return g.state.Session
}

// Deactivate stops sound processing. The returned events release every voice
// and must be dispatched synchronously.
func (g *Gate) Deactivate() []Event {
	g.events = g.events[:0]
	for _, v := range Voices {
		g.events = append(g.events, Event{Kind: EventRelease, Voice: v})
	}
	g.reset()
	g.active = false
	return g.events
}

func (g *Gate) reset() {
	g.state = State{}
	for _, t := range g.triggers {
		t.Reset()
	}
}

// Tick advances the gate by one frame. An inactive gate does nothing.
func (g *Gate) Tick(in Input) Result {
	g.events = g.events[:0]
	if !g.active {
		return Result{}
	}

	res := Result{}
	snap := in.Snapshot

	if snap.HasHands() {
		res.Velocities = g.trackTips(snap, in.Viewport)
		for _, v := range res.Velocities {
			if v > g.config.VelocityThreshold {
				res.Interacting = true
			}
		}
		if math.Abs(in.Proximity-g.state.LastProximity) > g.config.ProximityJump {
			res.Interacting = true
		}
	} else {
		g.state.LastTips = [landmark.MaxHands]*landmark.Vec{}
	}

	g.updateVolume(in.Now, res.Interacting)
	g.state.LastProximity = in.Proximity
	res.Volume = g.state.Volume

	g.emit(Event{Kind: EventGain, Gain: g.state.Volume})
	g.triggerVoices(in, res.Velocities)

	res.Events = g.events
	return res
}

// trackTips returns per-slot index fingertip speed and remembers positions.
// A slot whose hand or fingertip is missing is cleared.
func (g *Gate) trackTips(snap *landmark.Snapshot, vp landmark.Viewport) [landmark.MaxHands]float64 {
	var vel [landmark.MaxHands]float64
	for slot := 0; slot < landmark.MaxHands; slot++ {
		hand, ok := snap.Hand(slot)
		if !ok {
			g.state.LastTips[slot] = nil
			continue
		}
		tip, ok := vp.ScreenAt(hand.Set, landmark.IndexTip)
		if !ok {
			g.state.LastTips[slot] = nil
			continue
		}
		if last := g.state.LastTips[slot]; last != nil {
			vel[slot] = tip.Dist(*last)
		}
		g.state.LastTips[slot] = &tip
	}
	return vel
}

func (g *Gate) updateVolume(now time.Time, interacting bool) {
	v := g.state.Volume
	switch {
	case interacting:
		g.state.LastInteraction = now
		v = proximity.Lerp(v, 1, g.config.RiseRate)
	case now.Sub(g.state.LastInteraction) >= g.config.IdleTimeout:
		v = proximity.Lerp(v, 0, g.config.FallRate)
		if v < g.config.SilenceFloor {
			v = 0
		}
	}
	g.state.Volume = proximity.Clamp(v, 0, 1)
}

func (g *Gate) triggerVoices(in Input, vel [landmark.MaxHands]float64) {
	cfg := g.config
	vol := g.state.Volume
	audible := vol > cfg.SilenceFloor
	now := in.Now

	if t := g.triggers[VoiceDrone]; audible && t.Ready(now) {
		root := cfg.Drone.Low
		if y, ok := g.tipY(in, 0); ok {
			root = pitchFor(y, 0, 1, cfg.Drone.Low, cfg.Drone.High)
		}
		pitches := make([]int, len(DroneIntervals))
		for i, iv := range DroneIntervals {
			pitches[i] = root + iv
		}
		g.emit(Event{Kind: EventRelease, Voice: VoiceDrone})
		g.emit(Event{Kind: EventChord, Voice: VoiceDrone, Pitches: pitches, Amplitude: cfg.Drone.Amplitude * vol})
		t.Record(now)
	}

	fastest, speed := 0, vel[0]
	for i := 1; i < len(vel); i++ {
		if vel[i] > speed {
			fastest, speed = i, vel[i]
		}
	}
	if t := g.triggers[VoiceSynth]; audible && speed > cfg.SynthVelocity && t.Ready(now) {
		if y, ok := g.tipY(in, fastest); ok {
			g.emit(Event{
				Kind:      EventNote,
				Voice:     VoiceSynth,
				Pitch:     pitchFor(y, 0, 1, cfg.Synth.Low, cfg.Synth.High),
				Duration:  cfg.Synth.Duration,
				Amplitude: cfg.Synth.Amplitude * vol,
			})
			t.Record(now)
		}
	}

	if t := g.triggers[VoiceBass]; audible && in.Proximity > cfg.BassProximity && t.Ready(now) {
		g.emit(Event{
			Kind:      EventNote,
			Voice:     VoiceBass,
			Pitch:     pitchFor(in.Proximity, cfg.BassProximity, 1, cfg.Bass.Low, cfg.Bass.High),
			Duration:  cfg.Bass.Duration,
			Amplitude: cfg.Bass.Amplitude * vol,
		})
		t.Record(now)
	}

	// The hi-hat keeps time even when faded out; only its level follows volume.
	if t := g.triggers[VoiceHihat]; cfg.HihatEvery > 0 && in.Frame%cfg.HihatEvery == 0 && t.Ready(now) {
		level := proximity.Clamp(proximity.Map(vel[0]+vel[1], 0, 30, 0.05, cfg.Hihat.Amplitude), 0.05, cfg.Hihat.Amplitude)
		g.emit(Event{
			Kind:      EventNote,
			Voice:     VoiceHihat,
			Pitch:     NoisePitch,
			Duration:  cfg.Hihat.Duration,
			Amplitude: level * vol,
		})
		t.Record(now)
	}
}

// tipY returns the normalized y of the index fingertip in hand slot i.
func (g *Gate) tipY(in Input, slot int) (float64, bool) {
	hand, ok := in.Snapshot.Hand(slot)
	if !ok {
		return 0, false
	}
	p, ok := hand.At(landmark.IndexTip)
	if !ok {
		return 0, false
	}
	return p.Y, true
}

func (g *Gate) emit(e Event) {
	g.events = append(g.events, e)
}

// pitchFor maps v from [lo, hi] onto MIDI notes [low, high) and floors it.
// Out-of-range input is clamped first so the note stays inside the range.
func pitchFor(v, lo, hi float64, low, high int) int {
	v = proximity.Clamp(v, lo, hi)
	n := int(math.Floor(proximity.Map(v, lo, hi, float64(low), float64(high))))
	if n >= high && high > low {
		n = high - 1
	}
	return n
}
