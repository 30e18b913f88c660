package render

import (
	"image/color"

	"github.com/ayusman/resonance/internal/landmark"
)

// Op identifies a draw primitive.
type Op int

const (
	OpLine Op = iota
	OpCircle
	OpPolyline
)

// String returns the primitive name.
func (o Op) String() string {
	switch o {
	case OpLine:
		return "line"
	case OpCircle:
		return "circle"
	case OpPolyline:
		return "polyline"
	default:
		return "unknown"
	}
}

// Command is one recorded draw instruction.
type Command struct {
	Op     Op
	Points []landmark.Vec
	Size   float64 // stroke width for lines, diameter for circles
	Color  color.RGBA
}

// List is a Canvas that records commands instead of drawing them.
// The zero value is ready to use.
type List struct {
	Commands []Command
}

// Line records a line segment.
func (l *List) Line(a, b landmark.Vec, width float64, c color.RGBA) {
	l.Commands = append(l.Commands, Command{Op: OpLine, Points: []landmark.Vec{a, b}, Size: width, Color: c})
}

// Circle records a filled circle.
func (l *List) Circle(center landmark.Vec, diameter float64, c color.RGBA) {
	l.Commands = append(l.Commands, Command{Op: OpCircle, Points: []landmark.Vec{center}, Size: diameter, Color: c})
}

// Polyline records an open stroked path. The points are copied.
func (l *List) Polyline(points []landmark.Vec, width float64, c color.RGBA) {
	pts := make([]landmark.Vec, len(points))
	copy(pts, points)
	l.Commands = append(l.Commands, Command{Op: OpPolyline, Points: pts, Size: width, Color: c})
}

// Len returns the number of recorded commands.
func (l *List) Len() int {
	return len(l.Commands)
}

// Count returns how many recorded commands use op.
func (l *List) Count(op Op) int {
	n := 0
	for _, c := range l.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset clears the list, keeping its capacity.
func (l *List) Reset() {
	l.Commands = l.Commands[:0]
}

// Replay issues every recorded command on dst in order.
func (l *List) Replay(dst Canvas) {
	for _, c := range l.Commands {
		switch c.Op {
		case OpLine:
			dst.Line(c.Points[0], c.Points[1], c.Size, c.Color)
		case OpCircle:
			dst.Circle(c.Points[0], c.Size, c.Color)
		case OpPolyline:
			dst.Polyline(c.Points, c.Size, c.Color)
		}
	}
}
