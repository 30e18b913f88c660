// Package app runs the resonance installation: a landmark source feeding the
// engine from a background pipeline, and an ebiten window that draws the
// strands and plays the sound.
package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/resonance/internal/audio"
	"github.com/ayusman/resonance/internal/capture"
	"github.com/ayusman/resonance/internal/config"
	"github.com/ayusman/resonance/internal/detector"
	"github.com/ayusman/resonance/internal/engine"
)

// Devices are the hardware-facing collaborators. Nil fields are opened
// from the config by New.
type Devices struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Backend receives sound events. When nil, New opens the synth on the
	// sound card, and sound is dropped if that fails.
	Backend audio.Backend
}

// App owns every component and their lifetimes.
type App struct {
	config   config.Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	device   *audio.Device
	engine   *engine.Engine
	source   *Source
	game     *Game

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New builds the installation from cfg.
func New(cfg config.Config, dev Devices) *App {
	a := &App{
		config:   cfg,
		camera:   dev.Camera,
		motion:   capture.NewMotionDetector(cfg.Capture.Motion),
		detector: dev.Detector,
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.Capture)
	}

	// Try MediaPipe first, fall back to a detector that never sees anything.
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
			a.detector = mp
			log.Println("using mediapipe landmark detection")
		} else {
			log.Printf("mediapipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	backend := dev.Backend
	if backend == nil {
		synth := audio.NewSynth(cfg.Audio.SampleRate)
		if d, err := audio.OpenDevice(synth, cfg.Audio.BufferSize); err == nil {
			a.device = d
			backend = synth
		} else {
			log.Printf("audio not available (%v), sound disabled", err)
		}
	}

	a.engine = engine.New(cfg.Config, backend)
	a.source = NewSource(cfg.Source, a.camera, a.motion, a.detector)
	a.game = NewGame(cfg.Window, a.engine, a.source, cfg.Capture.Width, cfg.Capture.Height)

	return a
}

// Start opens the camera and begins the landmark pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.source.Run(ctx)
	})

	a.cancel = cancel
	a.group = g
	return nil
}

// Stop halts the pipeline and releases every device. Stop may be called
// after a failed Start.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
		if err := a.group.Wait(); err != nil {
			log.Printf("landmark source: %v", err)
		}
		a.cancel = nil
		a.group = nil
	}

	// Release any sounding voices before the device goes away.
	if a.engine.SoundActive() {
		a.game.ToggleSound()
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("error closing camera: %v", err)
	}
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		log.Printf("error closing detector: %v", err)
	}
	if a.device != nil {
		if err := a.device.Close(); err != nil {
			log.Printf("error closing audio: %v", err)
		}
		a.device = nil
	}
}

// Run starts the pipeline and blocks in the window loop until it is closed.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		return err
	}
	defer a.Stop()

	w := a.config.Window
	ebiten.SetWindowTitle(w.Title)
	ebiten.SetWindowSize(w.Width, w.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(w.Fullscreen)

	if a.config.Audio.Enabled {
		a.game.ToggleSound()
	}

	err := ebiten.RunGame(a.game)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// ToggleSound flips sound from outside the window loop.
func (a *App) ToggleSound() {
	a.game.RequestToggle()
}

// Quit closes the window from outside the window loop.
func (a *App) Quit() {
	a.game.RequestQuit()
}

// OnSound registers a callback for sound state changes.
func (a *App) OnSound(fn func(on bool)) {
	a.game.OnSound(fn)
}

// Engine returns the per-tick engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Source returns the landmark pipeline.
func (a *App) Source() *Source {
	return a.source
}

// Game returns the ebiten game.
func (a *App) Game() *Game {
	return a.game
}

// Detector returns the landmark detector in use.
func (a *App) Detector() detector.Detector {
	return a.detector
}
