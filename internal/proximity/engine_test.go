package proximity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ayusman/resonance/internal/landmark"
)

var testViewport = landmark.Viewport{Width: 800, Height: 600}

// singleTip returns a hand in which only the index fingertip is present,
// placed at screen position (sx, sy) in testViewport.
func singleTip(sx, sy float64) landmark.Hand {
	pts := make([]landmark.Point, landmark.NumHandLandmarks)
	pts[landmark.IndexTip] = landmark.Point{
		X: 1 - sx/testViewport.Width,
		Y: sy / testViewport.Height,
	}
	set := landmark.NewSet(landmark.KindHand, pts)
	for i := range pts {
		if i != landmark.IndexTip {
			set.Drop(i)
		}
	}
	return landmark.Hand{Set: set, Handedness: "Left", Score: 0.9}
}

// shouldersOnly returns a standing pose where only the chest reference is defined.
func shouldersOnly() *landmark.Set {
	pose := landmark.StandingPose()
	for i := 0; i < pose.Len(); i++ {
		if i != landmark.LeftShoulder && i != landmark.RightShoulder {
			pose.Drop(i)
		}
	}
	return &pose
}

func TestEngine_BodySample(t *testing.T) {
	e := New(DefaultConfig())

	// Chest of the standing pose lands at (400, 210) on an 800x600 viewport.
	snap := &landmark.Snapshot{
		Hands: []landmark.Hand{singleTip(400, 260)},
		Pose:  shouldersOnly(),
	}

	res := e.Update(snap, testViewport)

	if !res.Body.OK {
		t.Fatal("expected a body sample")
	}
	if math.Abs(res.Body.Distance-50) > 1e-6 {
		t.Errorf("distance = %f, want 50", res.Body.Distance)
	}
	if math.Abs(res.Body.Value-0.875) > 1e-6 {
		t.Errorf("body sample = %f, want 0.875", res.Body.Value)
	}
	if res.Face.OK {
		t.Error("no face sample expected without a face")
	}
	if math.Abs(res.Proximity-0.0875) > 1e-6 {
		t.Errorf("proximity = %f, want 0.0875 after one smoothing step", res.Proximity)
	}
}

func TestEngine_BodySample_FarAwayClampsToZero(t *testing.T) {
	e := New(DefaultConfig())

	snap := &landmark.Snapshot{
		Hands: []landmark.Hand{singleTip(400, 210+1000)},
		Pose:  shouldersOnly(),
	}

	res := e.Update(snap, testViewport)
	if !res.Body.OK {
		t.Fatal("expected a body sample")
	}
	if res.Body.Value != 0 {
		t.Errorf("body sample = %f, want 0 beyond max distance", res.Body.Value)
	}
}

func TestEngine_EmptySnapshotResets(t *testing.T) {
	e := New(DefaultConfig())
	e.state = 0.73

	res := e.Update(&landmark.Snapshot{}, testViewport)

	if !res.Reset {
		t.Error("expected Reset on an empty snapshot")
	}
	if e.State() != 0 || res.Proximity != 0 {
		t.Errorf("state = %f, want exactly 0", e.State())
	}
	if res.Previous != 0.73 {
		t.Errorf("previous = %f, want 0.73", res.Previous)
	}
	if res.Complexity != 1 {
		t.Errorf("complexity = %d, want 1", res.Complexity)
	}

	e.state = 0.4
	e.Update(nil, testViewport)
	if e.State() != 0 {
		t.Errorf("nil snapshot should reset, got %f", e.State())
	}
}

func TestEngine_PoseWithoutHandsDecays(t *testing.T) {
	e := New(DefaultConfig())
	e.state = 0.6
	pose := landmark.StandingPose()
	snap := &landmark.Snapshot{Pose: &pose}

	res := e.Update(snap, testViewport)

	if res.Reset {
		t.Error("a pose is not an empty frame")
	}
	if !res.Body.OK || res.Body.Value != 0 || !math.IsInf(res.Body.Distance, 1) {
		t.Errorf("body sample = %+v, want 0 at infinite distance", res.Body)
	}
	if math.Abs(e.State()-0.54) > 1e-12 {
		t.Errorf("state = %f, want 0.54 after one decay step", e.State())
	}

	for i := 0; i < 200; i++ {
		res = e.Update(snap, testViewport)
	}
	if e.State() > 1e-6 {
		t.Errorf("state = %f, want decayed to ~0", e.State())
	}
	if res.Complexity != 1 {
		t.Errorf("complexity = %d, want 1", res.Complexity)
	}
}

func TestEngine_HandsLeaveBodyDecays(t *testing.T) {
	e := New(DefaultConfig())
	pose := landmark.StandingPose()
	onChest := &landmark.Snapshot{Hands: []landmark.Hand{landmark.HandAt(0.5, 0.35)}, Pose: &pose}
	for i := 0; i < 120; i++ {
		e.Update(onChest, testViewport)
	}
	peak := e.State()
	if peak < 0.9 {
		t.Fatalf("state = %f, want > 0.9 with a hand on the chest", peak)
	}

	bodyOnly := &landmark.Snapshot{Pose: &pose}
	prev := peak
	for i := 0; i < 60; i++ {
		res := e.Update(bodyOnly, testViewport)
		if res.Proximity >= prev {
			t.Fatalf("tick %d: proximity %f did not fall from %f", i, res.Proximity, prev)
		}
		prev = res.Proximity
	}
	if prev > 0.01 {
		t.Errorf("state = %f after hands left, want near 0", prev)
	}
}

func TestEngine_HandsWithoutPose(t *testing.T) {
	e := New(DefaultConfig())
	e.state = 0.5

	res := e.Update(&landmark.Snapshot{Hands: []landmark.Hand{landmark.HandAt(0.5, 0.3)}}, testViewport)

	if !res.Body.OK || res.Body.Value != 0 {
		t.Errorf("body sample = %+v, want 0 without a pose", res.Body)
	}
	if math.Abs(e.State()-0.45) > 1e-12 {
		t.Errorf("state = %f, want 0.45", e.State())
	}
}

func TestEngine_FaceWithoutPose(t *testing.T) {
	e := New(DefaultConfig())
	face := landmark.OvalFace(0.5, 0.3, 0.1)

	snap := &landmark.Snapshot{
		Hands: []landmark.Hand{landmark.HandAt(0.5, 0.3)},
		Face:  &face,
	}

	res := e.Update(snap, testViewport)

	if !res.Face.OK {
		t.Fatal("expected a face sample")
	}
	if res.Body.Value != 0 {
		t.Errorf("body sample = %f, want 0 without a pose", res.Body.Value)
	}
	if res.Face.Value <= 0.5 {
		t.Errorf("fingertip inside the face should give a high sample, got %f", res.Face.Value)
	}
	if want := res.Face.Value / 2; math.Abs(res.Combined.Value-want) > 1e-12 {
		t.Errorf("combined = %f, want half the face sample %f", res.Combined.Value, want)
	}

	for i := 0; i < 300; i++ {
		res = e.Update(snap, testViewport)
	}
	if math.Abs(res.Proximity-res.Face.Value/2) > 0.01 {
		t.Errorf("state = %f, want it to settle at %f", res.Proximity, res.Face.Value/2)
	}
}

func TestEngine_CombinedIsMean(t *testing.T) {
	e := New(DefaultConfig())
	face := landmark.OvalFace(0.5, 0.2, 0.08)

	snap := &landmark.Snapshot{
		Hands: []landmark.Hand{singleTip(400, 260)},
		Pose:  shouldersOnly(),
		Face:  &face,
	}

	res := e.Update(snap, testViewport)
	if !res.Body.OK || !res.Face.OK {
		t.Fatal("expected both samples")
	}
	want := (res.Body.Value + res.Face.Value) / 2
	if math.Abs(res.Combined.Value-want) > 1e-12 {
		t.Errorf("combined = %f, want %f", res.Combined.Value, want)
	}
}

func TestEngine_StateStaysInRange(t *testing.T) {
	e := New(DefaultConfig())
	rng := rand.New(rand.NewSource(7))
	pose := landmark.StandingPose()

	for i := 0; i < 2000; i++ {
		var snap *landmark.Snapshot
		switch rng.Intn(4) {
		case 0:
			snap = &landmark.Snapshot{}
		case 1:
			snap = &landmark.Snapshot{Pose: &pose}
		default:
			hand := landmark.HandAt(rng.Float64()*1.4-0.2, rng.Float64()*1.4-0.2)
			snap = &landmark.Snapshot{Hands: []landmark.Hand{hand}, Pose: &pose}
		}

		res := e.Update(snap, testViewport)
		if res.Proximity < 0 || res.Proximity > 1 {
			t.Fatalf("tick %d: proximity %f out of [0,1]", i, res.Proximity)
		}
		if res.Complexity < 1 || res.Complexity > 6 {
			t.Fatalf("tick %d: complexity %d out of [1,6]", i, res.Complexity)
		}
	}
}

func TestEngine_Converges(t *testing.T) {
	e := New(DefaultConfig())
	snap := &landmark.Snapshot{
		Hands: []landmark.Hand{singleTip(400, 210)},
		Pose:  shouldersOnly(),
	}

	for i := 0; i < 200; i++ {
		e.Update(snap, testViewport)
	}

	if math.Abs(e.State()-1) > 1e-6 {
		t.Errorf("state = %f, want convergence to 1", e.State())
	}
	if e.Complexity() != 6 {
		t.Errorf("complexity = %d, want 6", e.Complexity())
	}
}

func TestComplexityFor(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		state float64
		want  int
	}{
		{0, 1},
		{0.05, 1},
		{0.1, 2},
		{0.5, 4},
		{0.95, 6},
		{1, 6},
		{1.5, 6},
		{-1, 1},
	}

	for _, tt := range tests {
		if got := e.complexityFor(tt.state); got != tt.want {
			t.Errorf("complexityFor(%v) = %d, want %d", tt.state, got, tt.want)
		}
	}
}

func TestMap(t *testing.T) {
	if got := Map(50, 0, 400, 1, 0); got != 0.875 {
		t.Errorf("Map(50,0,400,1,0) = %f, want 0.875", got)
	}
	if got := Map(5, 3, 3, 7, 9); got != 7 {
		t.Errorf("degenerate range should return outLo, got %f", got)
	}
}
