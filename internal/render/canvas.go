// Package render defines the drawing surface the connection renderer targets,
// a recording implementation for tests, and an ebiten-backed implementation.
package render

import (
	"image/color"

	"github.com/ayusman/resonance/internal/landmark"
)

// Canvas receives draw instructions in video space.
// Sizes are in pixels; colors use straight alpha.
type Canvas interface {
	Line(a, b landmark.Vec, width float64, c color.RGBA)
	Circle(center landmark.Vec, diameter float64, c color.RGBA)
	Polyline(points []landmark.Vec, width float64, c color.RGBA)
}

// White returns opaque white scaled to the given alpha in [0,255].
// Alpha outside the range is clamped.
func White(alpha float64) color.RGBA {
	return Gray(255, alpha)
}

// Gray returns a gray level with the given alpha in [0,255].
func Gray(level uint8, alpha float64) color.RGBA {
	switch {
	case alpha != alpha || alpha < 0:
		alpha = 0
	case alpha > 255:
		alpha = 255
	}
	return color.RGBA{R: level, G: level, B: level, A: uint8(alpha)}
}
