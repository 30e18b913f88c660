package app

import (
	"errors"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"gocv.io/x/gocv"

	"github.com/ayusman/resonance/internal/audio"
	"github.com/ayusman/resonance/internal/capture"
	"github.com/ayusman/resonance/internal/config"
	"github.com/ayusman/resonance/internal/detector"
	"github.com/ayusman/resonance/internal/engine"
	"github.com/ayusman/resonance/internal/landmark"
)

var t0 = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

// staticLandmarks serves a fixed snapshot and no video.
type staticLandmarks struct {
	snap  *landmark.Snapshot
	frame *Frame
}

func (s *staticLandmarks) Snapshot() *landmark.Snapshot { return s.snap }
func (s *staticLandmarks) Frame() *Frame                { return s.frame }

func handOnChest() *landmark.Snapshot {
	pose := landmark.StandingPose()
	return &landmark.Snapshot{
		Hands: []landmark.Hand{landmark.HandAt(0.5, 0.35)},
		Pose:  &pose,
	}
}

func newTestGame(src Landmarks, backend audio.Backend) *Game {
	cfg := config.Default()
	cfg.Connection.Seed = 1
	eng := engine.New(cfg.Config, backend)
	g := NewGame(cfg.Window, eng, src, 640, 480)
	clock := t0
	g.now = func() time.Time {
		clock = clock.Add(16 * time.Millisecond)
		return clock
	}
	return g
}

func TestGame_TickRecordsDrawing(t *testing.T) {
	g := newTestGame(&staticLandmarks{snap: handOnChest()}, nil)

	for i := 0; i < 30; i++ {
		if err := g.tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	if g.list.Len() == 0 {
		t.Error("expected recorded draw commands")
	}
	if g.Last().Frame != 30 {
		t.Errorf("frame = %d, want 30", g.Last().Frame)
	}
	if g.Last().Proximity.Proximity < 0.9 {
		t.Errorf("proximity = %f, want > 0.9", g.Last().Proximity.Proximity)
	}
}

func TestGame_NoDetectionYet(t *testing.T) {
	g := newTestGame(&staticLandmarks{}, nil)

	if err := g.tick(); err != nil {
		t.Fatal(err)
	}
	if g.list.Len() != 0 {
		t.Errorf("nothing detected, but %d commands recorded", g.list.Len())
	}
}

func TestGame_RequestToggle(t *testing.T) {
	rec := audio.NewRecorder()
	g := newTestGame(&staticLandmarks{snap: handOnChest()}, rec)

	var states []bool
	g.OnSound(func(on bool) { states = append(states, on) })

	g.RequestToggle()
	if err := g.tick(); err != nil {
		t.Fatal(err)
	}
	if len(states) != 1 || !states[0] {
		t.Fatalf("sound states = %v, want [true]", states)
	}
	if len(rec.Calls()) == 0 {
		t.Error("active sound should reach the backend")
	}

	rec.Reset()
	g.RequestToggle()
	g.tick()
	if len(states) != 2 || states[1] {
		t.Fatalf("sound states = %v, want [true false]", states)
	}
	for _, c := range rec.Calls() {
		if c.Method != "ReleaseAll" {
			t.Errorf("after toggling off got %s", c.Method)
		}
	}
}

func TestGame_RequestToggleNeverBlocks(t *testing.T) {
	g := newTestGame(&staticLandmarks{}, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			g.RequestToggle()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RequestToggle blocked")
	}
}

func TestGame_RequestQuit(t *testing.T) {
	g := newTestGame(&staticLandmarks{}, nil)

	g.RequestQuit()

	if err := g.tick(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("tick after quit = %v, want ebiten.Termination", err)
	}
}

func TestGame_ViewportFollowsVideo(t *testing.T) {
	src := &staticLandmarks{}
	g := newTestGame(src, nil)
	g.Layout(1280, 720)

	vp := g.viewport()
	if vp.Width != 1280 || vp.Height != 960 {
		t.Errorf("4:3 fallback viewport = %+v", vp)
	}

	src.frame = &Frame{Width: 1280, Height: 720, Seq: 1}
	vp = g.viewport()
	if vp.Width != 1280 || vp.Height != 720 || vp.OffsetY != 0 {
		t.Errorf("16:9 viewport = %+v", vp)
	}
}

func blankFrames(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
		if i%2 == 1 {
			m.SetTo(gocv.NewScalar(255, 255, 255, 0))
		}
		frames[i] = &m
	}
	return frames
}

func closeFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

func TestApp_Pipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frames := blankFrames(2)
	defer closeFrames(frames)

	cam := capture.NewMockCamera(frames, true)
	det := detector.NewMockDetector()
	det.SetHands(landmark.HandAt(0.5, 0.35))
	rec := audio.NewRecorder()

	cfg := config.Default()
	cfg.Source.IdleFPS = 50
	cfg.Source.ActiveFPS = 100

	a := New(cfg, Devices{Camera: cam, Detector: det, Backend: rec})
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// A second Start is a no-op.
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for a.Source().Detections() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	a.Stop()

	if a.Source().Detections() < 3 {
		t.Fatalf("only %d detections published", a.Source().Detections())
	}
	snap := a.Source().Snapshot()
	if !snap.HasHands() {
		t.Error("published snapshot should carry the detected hand")
	}
	if f := a.Source().Frame(); f == nil || f.Width != 160 || f.Height != 120 {
		t.Errorf("published frame = %+v", f)
	}
	if !a.Source().Active() {
		t.Error("alternating frames should switch capture to active mode")
	}
	if cam.FPS() != cfg.Source.ActiveFPS {
		t.Errorf("camera fps = %d, want %d", cam.FPS(), cfg.Source.ActiveFPS)
	}
	if cam.IsOpen() {
		t.Error("camera should be closed after Stop")
	}
}

func TestApp_StopReleasesSound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	rec := audio.NewRecorder()
	a := New(config.Default(), Devices{
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
		Backend:  rec,
	})

	a.Game().ToggleSound()
	rec.Reset()
	a.Stop()

	releases := 0
	for _, c := range rec.Calls() {
		if c.Method == "ReleaseAll" {
			releases++
		}
	}
	if releases != 4 {
		t.Errorf("Stop made %d releases, want 4", releases)
	}
	if a.Engine().SoundActive() {
		t.Error("sound should be off after Stop")
	}
}

func TestSource_DetectorErrorsKeepLastSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frames := blankFrames(1)
	defer closeFrames(frames)

	det := detector.NewMockDetector()
	det.SetError(errors.New("service crashed"))
	src := NewSource(config.Source{IdleFPS: 100, ActiveFPS: 100}, capture.NewMockCamera(frames, true), nil, det)

	prev := &landmark.Snapshot{Hands: []landmark.Hand{landmark.OpenPalm()}, Timestamp: time.Now()}
	src.snapshot.Store(prev)

	ch := make(chan *gocv.Mat, 1)
	m := frames[0].Clone()
	ch <- &m
	close(ch)
	if err := src.detect(ch); err != nil {
		t.Fatal(err)
	}

	if src.Snapshot() != prev {
		t.Error("a failed detection must not replace the last snapshot")
	}
	if det.Calls() != 1 {
		t.Errorf("detector calls = %d, want 1", det.Calls())
	}
}

func TestSource_StaleSnapshotExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frames := blankFrames(3)
	defer closeFrames(frames)

	det := detector.NewMockDetector()
	det.SetHands(landmark.OpenPalm())
	src := NewSource(config.Source{IdleFPS: 100, ActiveFPS: 100, MaxAge: time.Second}, capture.NewMockCamera(frames, true), nil, det)
	clock := t0
	src.now = func() time.Time { return clock }

	feed := func() {
		t.Helper()
		ch := make(chan *gocv.Mat, 1)
		m := frames[0].Clone()
		ch <- &m
		close(ch)
		if err := src.detect(ch); err != nil {
			t.Fatal(err)
		}
	}

	feed()
	if snap := src.Snapshot(); snap == nil || !snap.HasHands() {
		t.Fatalf("fresh detection = %+v, want hands", snap)
	}

	det.SetError(errors.New("service crashed"))
	tests := []struct {
		name  string
		after time.Duration
		empty bool
	}{
		{"within max age", 500 * time.Millisecond, false},
		{"at max age", time.Second, false},
		{"past max age", 1500 * time.Millisecond, true},
		{"long after", time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock = t0.Add(tt.after)
			feed()
			snap := src.Snapshot()
			if snap == nil {
				t.Fatal("snapshot should never be nil after a detection")
			}
			if snap.Empty() != tt.empty {
				t.Errorf("empty = %v, want %v", snap.Empty(), tt.empty)
			}
		})
	}

	det.SetError(nil)
	feed()
	if snap := src.Snapshot(); snap.Empty() {
		t.Error("a new detection should replace the expired one")
	}
}

func TestSource_MaxAgeDefault(t *testing.T) {
	src := NewSource(config.Source{}, capture.NewMockCamera(nil, false), nil, nil)
	if src.config.MaxAge != DefaultMaxAge {
		t.Errorf("max age = %v, want %v", src.config.MaxAge, DefaultMaxAge)
	}
}
