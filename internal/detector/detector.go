// Package detector turns webcam frames into landmark snapshots.
package detector

import (
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/resonance/internal/landmark"
)

// ErrServiceNotFound is returned when the landmark service script cannot be located.
var ErrServiceNotFound = errors.New("landmark_service.py not found")

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns every landmark set found.
	// A frame with nothing in it yields an empty snapshot, not an error.
	Detect(frame *gocv.Mat) (landmark.Snapshot, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `yaml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`

	// Pose and Face enable the body and face landmarkers.
	Pose bool `yaml:"pose"`
	Face bool `yaml:"face"`

	// Script overrides the landmark service location.
	Script string `yaml:"script"`
	// Python overrides the interpreter; a venv is searched for by default.
	Python string `yaml:"python"`

	// IdleTimeout stops the service after this long without frames.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        landmark.MaxHands,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		Pose:            true,
		Face:            true,
		IdleTimeout:     30 * time.Second,
	}
}
