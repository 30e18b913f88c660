// Package engine runs the proximity engine, connection renderer and sound gate
// once per display tick over a single owned state.
package engine

import (
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/resonance/internal/audio"
	"github.com/ayusman/resonance/internal/connection"
	"github.com/ayusman/resonance/internal/interaction"
	"github.com/ayusman/resonance/internal/landmark"
	"github.com/ayusman/resonance/internal/proximity"
	"github.com/ayusman/resonance/internal/render"
)

// Config groups the settings of the three core components.
type Config struct {
	Proximity   proximity.Config   `yaml:"proximity"`
	Connection  connection.Config  `yaml:"connection"`
	Interaction interaction.Config `yaml:"interaction"`
}

// DefaultConfig returns the stock installation tuning.
func DefaultConfig() Config {
	return Config{
		Proximity:   proximity.DefaultConfig(),
		Connection:  connection.DefaultConfig(),
		Interaction: interaction.DefaultConfig(),
	}
}

// Tick is the input of one Step.
type Tick struct {
	Now      time.Time
	Snapshot *landmark.Snapshot
	Viewport landmark.Viewport
}

// Output is what one Step produced.
type Output struct {
	Frame     uint64
	Proximity proximity.Result
	Render    connection.Stats
	Gate      interaction.Result
	// Failed counts audio events the backend rejected.
	Failed int
}

// Engine owns every piece of per-frame state. It is not safe for concurrent
// use; call it from the display loop only.
type Engine struct {
	prox     *proximity.Engine
	renderer *connection.Renderer
	gate     *interaction.Gate
	sound    *audio.Dispatcher
	frame    uint64
}

// New wires the core components. backend may be nil, in which case sound
// events are computed and dropped.
func New(cfg Config, backend audio.Backend) *Engine {
	seed := cfg.Connection.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		prox:     proximity.New(cfg.Proximity),
		renderer: connection.New(cfg.Connection, rand.New(rand.NewSource(seed))),
		gate:     interaction.New(cfg.Interaction),
		sound:    audio.NewDispatcher(backend),
	}
}

// Step advances the installation by one frame, drawing onto canvas and
// dispatching sound events. A nil snapshot is treated as an empty frame.
func (e *Engine) Step(t Tick, canvas render.Canvas) Output {
	e.frame++
	out := Output{Frame: e.frame}

	out.Proximity = e.prox.Update(t.Snapshot, t.Viewport)

	face := 0.0
	if out.Proximity.Face.OK {
		face = out.Proximity.Face.Value
	}
	if canvas != nil {
		out.Render = e.renderer.Render(connection.Input{
			Snapshot:   t.Snapshot,
			Viewport:   t.Viewport,
			Proximity:  out.Proximity.Proximity,
			FaceSample: face,
			Complexity: out.Proximity.Complexity,
			Frame:      e.frame,
		}, canvas)
	}

	out.Gate = e.gate.Tick(interaction.Input{
		Now:       t.Now,
		Frame:     e.frame,
		Snapshot:  t.Snapshot,
		Viewport:  t.Viewport,
		Proximity: out.Proximity.Proximity,
	})
	if len(out.Gate.Events) > 0 {
		out.Failed = e.sound.Dispatch(out.Gate.Events)
	}
	return out
}

// ToggleSound flips sound processing. Turning it off releases every voice
// before returning. The session id is zero when sound ends.
func (e *Engine) ToggleSound(now time.Time) (bool, uuid.UUID) {
	if e.gate.Active() {
		session := e.gate.State().Session
		e.sound.Dispatch(e.gate.Deactivate())
		log.Printf("[%s] sound off", shortID(session))
		e.sound.SetPrefix("")
		return false, uuid.Nil
	}

	session := e.gate.Activate(now, e.prox.State())
	e.sound.SetPrefix(shortID(session))
	log.Printf("[%s] sound on", shortID(session))
	return true, session
}

// SoundActive reports whether the gate is processing.
func (e *Engine) SoundActive() bool {
	return e.gate.Active()
}

// Frame returns the number of completed steps.
func (e *Engine) Frame() uint64 {
	return e.frame
}

// Proximity returns the smoothed proximity state.
func (e *Engine) Proximity() float64 {
	return e.prox.State()
}

// Complexity returns the current complexity level.
func (e *Engine) Complexity() int {
	return e.prox.Complexity()
}

// Volume returns the gate's master volume.
func (e *Engine) Volume() float64 {
	return e.gate.State().Volume
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
