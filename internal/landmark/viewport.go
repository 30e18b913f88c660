package landmark

import "math"

// Vec is a position in screen space (pixels).
type Vec struct {
	X, Y float64
}

// Dist returns the Euclidean distance between two screen positions.
func (v Vec) Dist(o Vec) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Lerp interpolates between v and o by t.
func (v Vec) Lerp(o Vec, t float64) Vec {
	return Vec{X: v.X + (o.X-v.X)*t, Y: v.Y + (o.Y-v.Y)*t}
}

// Viewport maps normalized landmark coordinates onto the scaled webcam image.
// The image covers the canvas while keeping its aspect ratio, and is mirrored
// horizontally because the camera feed is shown as a mirror.
type Viewport struct {
	Width   float64 // scaled video width
	Height  float64 // scaled video height
	OffsetX float64 // translation that centers the video on the canvas
	OffsetY float64
}

// CoverViewport fits a video of videoW x videoH so that it covers a canvas of
// canvasW x canvasH, centered.
func CoverViewport(videoW, videoH, canvasW, canvasH float64) Viewport {
	if videoW <= 0 || videoH <= 0 || canvasW <= 0 || canvasH <= 0 {
		return Viewport{Width: canvasW, Height: canvasH}
	}

	videoAspect := videoW / videoH
	canvasAspect := canvasW / canvasH

	var v Viewport
	if videoAspect > canvasAspect {
		// Video is wider than the canvas
		v.Height = canvasH
		v.Width = v.Height * videoAspect
	} else {
		v.Width = canvasW
		v.Height = v.Width / videoAspect
	}
	v.OffsetX = canvasW/2 - v.Width/2
	v.OffsetY = canvasH/2 - v.Height/2
	return v
}

// ToScreen maps a normalized landmark into mirrored video space.
// Offsets are not applied; the canvas translates everything at draw time.
func (v Viewport) ToScreen(p Point) Vec {
	return Vec{
		X: (1 - p.X) * v.Width,
		Y: p.Y * v.Height,
	}
}

// ScreenAt maps landmark i of set s, reporting false when it is missing.
func (v Viewport) ScreenAt(s Set, i int) (Vec, bool) {
	p, ok := s.At(i)
	if !ok {
		return Vec{}, false
	}
	return v.ToScreen(p), true
}
