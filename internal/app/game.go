package app

import (
	"fmt"
	"image/color"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ayusman/resonance/internal/config"
	"github.com/ayusman/resonance/internal/engine"
	"github.com/ayusman/resonance/internal/landmark"
	"github.com/ayusman/resonance/internal/render"
)

// Landmarks is where the game reads the newest detection and webcam image.
type Landmarks interface {
	Snapshot() *landmark.Snapshot
	Frame() *Frame
}

// Game is the ebiten game: Update steps the engine once per tick and records
// what it drew, Draw replays it over the dimmed webcam image.
type Game struct {
	config config.Window
	engine *engine.Engine
	source Landmarks

	// videoW and videoH are used until the first frame arrives.
	videoW, videoH float64
	width, height  int

	list     render.List
	canvas   *render.Screen
	video    *ebiten.Image
	videoSeq uint64
	last     engine.Output

	toggles   chan struct{}
	quit      atomic.Bool
	proximity atomic.Uint64
	onSound   func(on bool)
	now       func() time.Time
}

// NewGame creates a game over eng fed by source. videoW and videoH are the
// expected camera resolution.
func NewGame(cfg config.Window, eng *engine.Engine, source Landmarks, videoW, videoH int) *Game {
	return &Game{
		config:  cfg,
		engine:  eng,
		source:  source,
		videoW:  float64(videoW),
		videoH:  float64(videoH),
		width:   cfg.Width,
		height:  cfg.Height,
		toggles: make(chan struct{}, 4),
		now:     time.Now,
	}
}

// OnSound registers a callback run on the game goroutine after every toggle.
func (g *Game) OnSound(fn func(on bool)) {
	g.onSound = fn
}

// RequestToggle asks the game to flip sound on its next tick. It is safe to
// call from any goroutine.
func (g *Game) RequestToggle() {
	select {
	case g.toggles <- struct{}{}:
	default:
	}
}

// RequestQuit ends the game on its next tick. It is safe to call from any
// goroutine.
func (g *Game) RequestQuit() {
	g.quit.Store(true)
}

// ToggleSound flips sound immediately. Call it only from the game goroutine.
func (g *Game) ToggleSound() (bool, uuid.UUID) {
	on, session := g.engine.ToggleSound(g.now())
	if g.onSound != nil {
		g.onSound(on)
	}
	return on, session
}

// Last returns the output of the most recent tick.
func (g *Game) Last() engine.Output {
	return g.last
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.RequestQuit()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.RequestToggle()
	}
	return g.tick()
}

// tick runs one frame of game logic without reading the keyboard.
func (g *Game) tick() error {
	if g.quit.Load() {
		return ebiten.Termination
	}

	for pending := true; pending; {
		select {
		case <-g.toggles:
			g.ToggleSound()
		default:
			pending = false
		}
	}

	g.list.Reset()
	g.last = g.engine.Step(engine.Tick{
		Now:      g.now(),
		Snapshot: g.source.Snapshot(),
		Viewport: g.viewport(),
	}, &g.list)
	g.proximity.Store(math.Float64bits(g.last.Proximity.Proximity))
	return nil
}

// Proximity returns the proximity of the last tick. It is safe to call from
// any goroutine.
func (g *Game) Proximity() float64 {
	return math.Float64frombits(g.proximity.Load())
}

// viewport fits the current video size into the window.
func (g *Game) viewport() landmark.Viewport {
	vw, vh := g.videoW, g.videoH
	if f := g.source.Frame(); f != nil {
		vw, vh = float64(f.Width), float64(f.Height)
	}
	return landmark.CoverViewport(vw, vh, float64(g.width), float64(g.height))
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	vp := g.viewport()

	if g.config.Video {
		g.uploadVideo()
		render.DrawVideo(screen, g.video, vp)
	}

	offset := landmark.Vec{X: vp.OffsetX, Y: vp.OffsetY}
	if g.canvas == nil {
		g.canvas = render.NewScreen(screen, offset)
	} else {
		g.canvas.Reset(screen, offset)
	}
	g.list.Replay(g.canvas)
	g.canvas.Flush()

	if g.config.Debug {
		ebitenutil.DebugPrint(screen, g.status())
	}
}

func (g *Game) status() string {
	sound := "off"
	if g.engine.SoundActive() {
		sound = fmt.Sprintf("on  vol %.2f", g.engine.Volume())
	}
	return fmt.Sprintf("tps %.0f  fps %.0f\nproximity %.3f  complexity %d\nstrands %d  particles %d\nsound %s",
		ebiten.ActualTPS(), ebiten.ActualFPS(),
		g.engine.Proximity(), g.engine.Complexity(),
		g.last.Render.Polylines, g.last.Render.Particles, sound)
}

// uploadVideo copies a new webcam frame into the GPU image.
func (g *Game) uploadVideo() {
	f := g.source.Frame()
	if f == nil || f.Seq == g.videoSeq {
		return
	}
	if g.video == nil || g.video.Bounds().Dx() != f.Width || g.video.Bounds().Dy() != f.Height {
		if g.video != nil {
			g.video.Deallocate()
		}
		g.video = ebiten.NewImage(f.Width, f.Height)
	}
	g.video.WritePixels(f.Pix)
	g.videoSeq = f.Seq
}

// Layout implements ebiten.Game. The canvas always matches the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
