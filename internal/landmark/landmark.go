// Package landmark provides typed hand, pose and face landmark sets produced by
// the detector once per video frame.
package landmark

import (
	"math"
	"time"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist            = 0
	ThumbCMC         = 1
	ThumbMCP         = 2
	ThumbIP          = 3
	ThumbTip         = 4
	IndexMCP         = 5
	IndexPIP         = 6
	IndexDIP         = 7
	IndexTip         = 8
	MiddleMCP        = 9
	MiddlePIP        = 10
	MiddleDIP        = 11
	MiddleTip        = 12
	RingMCP          = 13
	RingPIP          = 14
	RingDIP          = 15
	RingTip          = 16
	PinkyMCP         = 17
	PinkyPIP         = 18
	PinkyDIP         = 19
	PinkyTip         = 20
	NumHandLandmarks = 21
)

// Pose landmark indices used by the reference points.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose             = 0
	LeftShoulder     = 11
	RightShoulder    = 12
	LeftHip          = 23
	RightHip         = 24
	LeftAnkle        = 27
	RightAnkle       = 28
	NumPoseLandmarks = 33
)

// NumFaceLandmarks is the size of the MediaPipe face mesh without iris refinement.
const NumFaceLandmarks = 468

// MaxHands is the number of hands the detector is asked to track.
const MaxHands = 2

// FingerTips lists the tip index of each finger, thumb first.
var FingerTips = []int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Kind identifies which detector produced a set.
type Kind string

const (
	KindHand Kind = "hand"
	KindPose Kind = "pose"
	KindFace Kind = "face"
)

// Point is a single landmark in normalized frame coordinates.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// finite reports whether both screen-relevant coordinates are usable numbers.
func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Set is an ordered landmark sequence with per-index presence.
// Index meaning is fixed per Kind.
type Set struct {
	Kind   Kind
	points []Point
	valid  []bool
}

// NewSet builds a set in which every given point is present.
// Points with non-finite coordinates are marked missing.
func NewSet(kind Kind, points []Point) Set {
	s := Set{
		Kind:   kind,
		points: make([]Point, len(points)),
		valid:  make([]bool, len(points)),
	}
	copy(s.points, points)
	for i, p := range points {
		s.valid[i] = p.finite()
	}
	return s
}

// Len returns the number of index slots in the set, present or not.
func (s Set) Len() int {
	return len(s.points)
}

// At returns the landmark at index i and whether it is present.
func (s Set) At(i int) (Point, bool) {
	if i < 0 || i >= len(s.points) || !s.valid[i] {
		return Point{}, false
	}
	return s.points[i], true
}

// Drop marks the landmark at index i as missing.
func (s *Set) Drop(i int) {
	if i >= 0 && i < len(s.valid) {
		s.valid[i] = false
	}
}

// Points returns a copy of the raw point slice, including missing slots.
func (s Set) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Hand is a 21-point hand set with the detector's handedness label.
type Hand struct {
	Set
	Handedness string // "Left" or "Right"
	Score      float64
}

// Snapshot is everything the detector found in one frame.
// A nil Pose or Face means the detector found nothing, not a zero position.
type Snapshot struct {
	Hands     []Hand
	Pose      *Set
	Face      *Set
	Timestamp time.Time
}

// HasHands reports whether at least one hand is present.
func (s *Snapshot) HasHands() bool {
	return s != nil && len(s.Hands) > 0
}

// HasPose reports whether a pose skeleton is present.
func (s *Snapshot) HasPose() bool {
	return s != nil && s.Pose != nil && s.Pose.Len() > 0
}

// HasFace reports whether a face mesh is present.
func (s *Snapshot) HasFace() bool {
	return s != nil && s.Face != nil && s.Face.Len() > 0
}

// Empty reports whether no landmark set at all was detected.
func (s *Snapshot) Empty() bool {
	return !s.HasHands() && !s.HasPose() && !s.HasFace()
}

// Hand returns the hand in detector slot i, if present.
func (s *Snapshot) Hand(i int) (*Hand, bool) {
	if s == nil || i < 0 || i >= len(s.Hands) || i >= MaxHands {
		return nil, false
	}
	return &s.Hands[i], true
}
