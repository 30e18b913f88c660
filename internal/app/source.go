package app

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/resonance/internal/capture"
	"github.com/ayusman/resonance/internal/config"
	"github.com/ayusman/resonance/internal/detector"
	"github.com/ayusman/resonance/internal/landmark"
)

// errorLogInterval rate-limits repeated capture and detection errors.
const errorLogInterval = 5 * time.Second

// DefaultMaxAge is how long a snapshot is served when the config sets none.
const DefaultMaxAge = time.Second

// expired is served in place of a snapshot older than MaxAge.
var expired = &landmark.Snapshot{}

// Frame is one webcam image in RGBA, ready for upload.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Seq    uint64
}

// Source runs capture and landmark detection off the display loop and
// publishes the newest results for it to pick up.
//
// Capture runs at IdleFPS until the motion detector sees movement, then at
// ActiveFPS until IdleTimeout passes without any. Every captured frame is
// offered to the detector; frames arriving while it is busy are dropped.
type Source struct {
	config   config.Source
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector

	snapshot atomic.Pointer[landmark.Snapshot]
	frame    atomic.Pointer[Frame]
	active   atomic.Bool
	detected atomic.Uint64

	now func() time.Time
}

// NewSource wires the capture chain. detector may be nil to only capture.
func NewSource(cfg config.Source, camera capture.Camera, motion *capture.MotionDetector, det detector.Detector) *Source {
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = capture.DefaultFPS
	}
	if cfg.ActiveFPS < cfg.IdleFPS {
		cfg.ActiveFPS = cfg.IdleFPS
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Source{
		config:   cfg,
		camera:   camera,
		motion:   motion,
		detector: det,
		now:      time.Now,
	}
}

// Snapshot returns the newest detection, or nil before the first one.
// A detection older than MaxAge comes back empty, which resets the scene.
// The snapshot is shared and must not be modified.
func (s *Source) Snapshot() *landmark.Snapshot {
	snap := s.snapshot.Load()
	if snap != nil && s.now().Sub(snap.Timestamp) > s.config.MaxAge {
		return expired
	}
	return snap
}

// Frame returns the newest webcam image, or nil before the first one.
func (s *Source) Frame() *Frame {
	return s.frame.Load()
}

// Active reports whether capture is in the fast, motion-triggered mode.
func (s *Source) Active() bool {
	return s.active.Load()
}

// Detections returns how many snapshots have been published.
func (s *Source) Detections() uint64 {
	return s.detected.Load()
}

// Run opens the camera and captures until ctx is done. The camera is
// closed before Run returns.
func (s *Source) Run(ctx context.Context) error {
	if err := s.camera.Open(); err != nil {
		return err
	}
	defer func() {
		if err := s.camera.Close(); err != nil {
			log.Printf("error closing camera: %v", err)
		}
	}()
	s.camera.SetFPS(s.config.IdleFPS)

	frames := make(chan *gocv.Mat, 1)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(frames)
		return s.capture(ctx, frames)
	})
	g.Go(func() error {
		return s.detect(frames)
	})

	log.Println("landmark source started")
	err := g.Wait()
	log.Println("landmark source stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// capture reads frames at the current mode's rate and hands clones to the
// detector without blocking.
func (s *Source) capture(ctx context.Context, out chan<- *gocv.Mat) error {
	lastMotion := time.Now()
	var lastErr time.Time
	var seq uint64

	ticker := time.NewTicker(time.Second / time.Duration(s.config.IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		frame, err := s.camera.ReadFrame()
		if err != nil {
			if time.Since(lastErr) > errorLogInterval {
				log.Printf("error reading frame: %v", err)
				lastErr = time.Now()
			}
			continue
		}

		if s.motion != nil {
			if moved, _ := s.motion.Detect(frame); moved {
				lastMotion = time.Now()
				if !s.active.Load() {
					s.setMode(ticker, true)
				}
			} else if s.active.Load() && time.Since(lastMotion) > s.config.IdleTimeout {
				s.setMode(ticker, false)
			}
		}

		seq++
		if pix, w, h, err := capture.ToRGBA(frame, nil); err == nil {
			s.frame.Store(&Frame{Pix: pix, Width: w, Height: h, Seq: seq})
		}

		if s.detector == nil {
			frame.Close()
			continue
		}
		select {
		case out <- frame:
		default:
			// Detector still busy with an older frame.
			frame.Close()
		}
	}
}

func (s *Source) setMode(ticker *time.Ticker, active bool) {
	fps := s.config.IdleFPS
	if active {
		fps = s.config.ActiveFPS
	}
	s.active.Store(active)
	s.camera.SetFPS(fps)
	ticker.Reset(time.Second / time.Duration(fps))
	if active {
		log.Println("switched to active mode")
	} else {
		log.Println("switched to idle mode")
	}
}

// detect runs the detector on every frame it receives until in is closed.
func (s *Source) detect(in <-chan *gocv.Mat) error {
	var lastErr time.Time
	for frame := range in {
		snap, err := s.detector.Detect(frame)
		frame.Close()
		if err != nil {
			if time.Since(lastErr) > errorLogInterval {
				log.Printf("error detecting landmarks: %v", err)
				lastErr = time.Now()
			}
			continue
		}
		if snap.Timestamp.IsZero() {
			snap.Timestamp = s.now()
		}
		s.snapshot.Store(&snap)
		s.detected.Add(1)
	}
	return nil
}
