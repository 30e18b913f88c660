// Package audio plays the events produced by the interaction gate.
//
// Backend is the seam between the gate and whatever makes sound: the
// procedural Synth in production, a Recorder in tests.
package audio

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/resonance/internal/interaction"
)

// ErrNotReady is returned by backends that cannot accept events yet, or any more.
var ErrNotReady = errors.New("audio backend not ready")

// Backend receives fire-and-forget voice requests. Implementations must not block.
type Backend interface {
	TriggerNote(voice interaction.Voice, pitch int, duration time.Duration, amplitude float64) error
	TriggerChordAttack(voice interaction.Voice, pitches []int, amplitude float64) error
	ReleaseAll(voice interaction.Voice) error
	SetMasterGain(gain float64) error
}

// Dispatcher forwards gate events to a Backend, logging failures.
// A failing call is logged once, and again when it recovers, so a backend
// that is down does not flood the log at frame rate.
type Dispatcher struct {
	backend Backend
	prefix  string
	failing map[string]bool
}

// NewDispatcher creates a dispatcher for backend.
func NewDispatcher(backend Backend) *Dispatcher {
	return &Dispatcher{
		backend: backend,
		failing: make(map[string]bool),
	}
}

// SetPrefix sets the tag printed before every log line, usually the session id.
func (d *Dispatcher) SetPrefix(prefix string) {
	d.prefix = prefix
}

// Dispatch issues every event in order and returns how many failed.
// Errors never stop the remaining events.
func (d *Dispatcher) Dispatch(events []interaction.Event) int {
	if d.backend == nil {
		return 0
	}

	failed := 0
	for _, e := range events {
		err := d.call(e)
		key := e.Kind.String() + ":" + string(e.Voice)
		switch {
		case err != nil:
			failed++
			if !d.failing[key] {
				d.failing[key] = true
				log.Printf("%saudio %s failed: %v", d.tag(), e, err)
			}
		case d.failing[key]:
			delete(d.failing, key)
			log.Printf("%saudio %s recovered", d.tag(), key)
		}
	}
	return failed
}

func (d *Dispatcher) call(e interaction.Event) error {
	switch e.Kind {
	case interaction.EventNote:
		return d.backend.TriggerNote(e.Voice, e.Pitch, e.Duration, e.Amplitude)
	case interaction.EventChord:
		return d.backend.TriggerChordAttack(e.Voice, e.Pitches, e.Amplitude)
	case interaction.EventRelease:
		return d.backend.ReleaseAll(e.Voice)
	case interaction.EventGain:
		return d.backend.SetMasterGain(e.Gain)
	default:
		return fmt.Errorf("unknown event kind %d", e.Kind)
	}
}

func (d *Dispatcher) tag() string {
	if d.prefix == "" {
		return ""
	}
	return "[" + d.prefix + "] "
}
