package render

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/ayusman/resonance/internal/landmark"
)

// VideoAlpha is the opacity the webcam image is drawn with.
const VideoAlpha = 80.0 / 255.0

// maxBatchVertices keeps index values inside uint16.
const maxBatchVertices = 60000

var (
	whiteOnce     sync.Once
	whiteSubImage *ebiten.Image
)

// solid returns a 1x1 white source region for DrawTriangles.
// Created lazily so importing this package does not allocate GPU images.
func solid() *ebiten.Image {
	whiteOnce.Do(func() {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	})
	return whiteSubImage
}

// Screen is a Canvas drawing onto an ebiten image with additive blending.
// Primitives are batched; call Flush once per frame after the last one.
type Screen struct {
	dst    *ebiten.Image
	offset landmark.Vec
	blend  ebiten.Blend

	path vector.Path
	vs   []ebiten.Vertex
	is   []uint16
}

// NewScreen returns a Screen translating every primitive by offset, which is
// where the video's top-left corner sits on dst.
func NewScreen(dst *ebiten.Image, offset landmark.Vec) *Screen {
	return &Screen{dst: dst, offset: offset, blend: ebiten.BlendLighter}
}

// Reset retargets the Screen for a new frame.
func (s *Screen) Reset(dst *ebiten.Image, offset landmark.Vec) {
	s.dst = dst
	s.offset = offset
	s.vs = s.vs[:0]
	s.is = s.is[:0]
}

// Line strokes a segment.
func (s *Screen) Line(a, b landmark.Vec, width float64, c color.RGBA) {
	s.path.Reset()
	s.path.MoveTo(s.x(a), s.y(a))
	s.path.LineTo(s.x(b), s.y(b))
	s.stroke(width, c)
}

// Circle fills a circle of the given diameter.
func (s *Screen) Circle(center landmark.Vec, diameter float64, c color.RGBA) {
	if diameter <= 0 || c.A == 0 {
		return
	}
	s.path.Reset()
	s.path.Arc(s.x(center), s.y(center), float32(diameter/2), 0, 2*math.Pi, vector.Clockwise)
	s.path.Close()

	s.reserve()
	base := len(s.vs)
	s.vs, s.is = s.path.AppendVerticesAndIndicesForFilling(s.vs, s.is)
	s.tint(base, c)
}

// Polyline strokes an open path through points.
func (s *Screen) Polyline(points []landmark.Vec, width float64, c color.RGBA) {
	if len(points) < 2 {
		return
	}
	s.path.Reset()
	s.path.MoveTo(s.x(points[0]), s.y(points[0]))
	for _, p := range points[1:] {
		s.path.LineTo(s.x(p), s.y(p))
	}
	s.stroke(width, c)
}

// Flush submits the batched triangles.
func (s *Screen) Flush() {
	if len(s.is) == 0 || s.dst == nil {
		s.vs = s.vs[:0]
		s.is = s.is[:0]
		return
	}
	op := &ebiten.DrawTrianglesOptions{
		Blend:     s.blend,
		AntiAlias: true,
	}
	s.dst.DrawTriangles(s.vs, s.is, solid(), op)
	s.vs = s.vs[:0]
	s.is = s.is[:0]
}

func (s *Screen) stroke(width float64, c color.RGBA) {
	if width <= 0 || c.A == 0 {
		return
	}
	s.reserve()
	base := len(s.vs)
	s.vs, s.is = s.path.AppendVerticesAndIndicesForStroke(s.vs, s.is, &vector.StrokeOptions{
		Width:    float32(width),
		LineJoin: vector.LineJoinRound,
		LineCap:  vector.LineCapRound,
	})
	s.tint(base, c)
}

func (s *Screen) reserve() {
	if len(s.vs) > maxBatchVertices {
		s.Flush()
	}
}

func (s *Screen) tint(from int, c color.RGBA) {
	r := float32(c.R) / 255
	g := float32(c.G) / 255
	b := float32(c.B) / 255
	a := float32(c.A) / 255
	for i := from; i < len(s.vs); i++ {
		s.vs[i].SrcX = 1
		s.vs[i].SrcY = 1
		s.vs[i].ColorR = r
		s.vs[i].ColorG = g
		s.vs[i].ColorB = b
		s.vs[i].ColorA = a
	}
}

func (s *Screen) x(v landmark.Vec) float32 { return float32(v.X + s.offset.X) }
func (s *Screen) y(v landmark.Vec) float32 { return float32(v.Y + s.offset.Y) }

// DrawVideo draws the webcam frame mirrored and faded, scaled into vp.
func DrawVideo(dst, frame *ebiten.Image, vp landmark.Viewport) {
	if frame == nil {
		return
	}
	b := frame.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(-vp.Width/float64(b.Dx()), vp.Height/float64(b.Dy()))
	op.GeoM.Translate(vp.OffsetX+vp.Width, vp.OffsetY)
	op.ColorScale.ScaleAlpha(VideoAlpha)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(frame, op)
}
