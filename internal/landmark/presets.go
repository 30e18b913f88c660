package landmark

import "math"

// OpenPalm returns a preset right hand with all fingers extended upward,
// wrist at (0.5, 0.8).
func OpenPalm() Hand {
	pts := make([]Point, NumHandLandmarks)

	pts[Wrist] = Point{X: 0.5, Y: 0.8}

	// Thumb extended to the side
	pts[ThumbCMC] = Point{X: 0.55, Y: 0.75, Z: 0.02}
	pts[ThumbMCP] = Point{X: 0.62, Y: 0.70, Z: 0.03}
	pts[ThumbIP] = Point{X: 0.68, Y: 0.65, Z: 0.03}
	pts[ThumbTip] = Point{X: 0.73, Y: 0.60, Z: 0.03}

	pts[IndexMCP] = Point{X: 0.55, Y: 0.68}
	pts[IndexPIP] = Point{X: 0.57, Y: 0.55}
	pts[IndexDIP] = Point{X: 0.58, Y: 0.45}
	pts[IndexTip] = Point{X: 0.58, Y: 0.35}

	pts[MiddleMCP] = Point{X: 0.50, Y: 0.66}
	pts[MiddlePIP] = Point{X: 0.50, Y: 0.52}
	pts[MiddleDIP] = Point{X: 0.50, Y: 0.40}
	pts[MiddleTip] = Point{X: 0.50, Y: 0.28}

	pts[RingMCP] = Point{X: 0.45, Y: 0.68}
	pts[RingPIP] = Point{X: 0.43, Y: 0.55}
	pts[RingDIP] = Point{X: 0.42, Y: 0.45}
	pts[RingTip] = Point{X: 0.42, Y: 0.35}

	pts[PinkyMCP] = Point{X: 0.40, Y: 0.70}
	pts[PinkyPIP] = Point{X: 0.37, Y: 0.60}
	pts[PinkyDIP] = Point{X: 0.35, Y: 0.50}
	pts[PinkyTip] = Point{X: 0.34, Y: 0.42}

	return Hand{
		Set:        NewSet(KindHand, pts),
		Handedness: "Right",
		Score:      0.95,
	}
}

// Translate returns a copy of the hand shifted by (dx, dy) in normalized units.
// Missing landmarks stay missing.
func (h Hand) Translate(dx, dy float64) Hand {
	pts := h.Points()
	for i := range pts {
		pts[i].X += dx
		pts[i].Y += dy
	}
	moved := NewSet(h.Kind, pts)
	for i := range pts {
		if _, ok := h.At(i); !ok {
			moved.Drop(i)
		}
	}
	return Hand{Set: moved, Handedness: h.Handedness, Score: h.Score}
}

// HandAt returns an open palm whose index fingertip sits at (x, y).
func HandAt(x, y float64) Hand {
	h := OpenPalm()
	tip, _ := h.At(IndexTip)
	return h.Translate(x-tip.X, y-tip.Y)
}

// StandingPose returns a preset frontal pose: shoulders at y=0.35,
// hips at y=0.6 and ankles at y=0.95, centered on x=0.5.
func StandingPose() Set {
	pts := make([]Point, NumPoseLandmarks)
	for i := range pts {
		// Unused joints sit on the body axis
		pts[i] = Point{X: 0.5, Y: 0.5, Visibility: 0.9}
	}
	pts[Nose] = Point{X: 0.5, Y: 0.2, Visibility: 0.99}
	pts[LeftShoulder] = Point{X: 0.6, Y: 0.35, Visibility: 0.99}
	pts[RightShoulder] = Point{X: 0.4, Y: 0.35, Visibility: 0.99}
	pts[LeftHip] = Point{X: 0.57, Y: 0.6, Visibility: 0.99}
	pts[RightHip] = Point{X: 0.43, Y: 0.6, Visibility: 0.99}
	pts[LeftAnkle] = Point{X: 0.56, Y: 0.95, Visibility: 0.9}
	pts[RightAnkle] = Point{X: 0.44, Y: 0.95, Visibility: 0.9}
	return NewSet(KindPose, pts)
}

// OvalFace returns a synthetic face mesh: every point is laid on concentric
// ellipses around (cx, cy) with the given radius, so curated indices have
// distinct, deterministic positions.
func OvalFace(cx, cy, radius float64) Set {
	pts := make([]Point, NumFaceLandmarks)
	const rings = 6
	for i := range pts {
		ring := float64(i%rings+1) / rings
		angle := float64(i) * 2 * math.Pi / 37
		pts[i] = Point{
			X: cx + math.Cos(angle)*radius*ring*0.8,
			Y: cy + math.Sin(angle)*radius*ring,
		}
	}
	return NewSet(KindFace, pts)
}
