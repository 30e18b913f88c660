package detector

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/resonance/internal/landmark"
)

var ts = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

// points returns n distinct points, leaving the given indices null.
func points(n int, missing ...int) []*jsonPoint {
	out := make([]*jsonPoint, n)
	for i := range out {
		out[i] = &jsonPoint{X: float64(i) / float64(n), Y: 0.5, Z: 0, Visibility: 0.9}
	}
	for _, i := range missing {
		out[i] = nil
	}
	return out
}

func encode(t *testing.T, r response) []byte {
	t.Helper()
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	return append(b, '\n')
}

func TestParseResponse(t *testing.T) {
	t.Run("all sets", func(t *testing.T) {
		line := encode(t, response{
			Hands: []jsonHand{
				{Points: points(21), Handedness: "Left", Score: 0.9},
				{Points: points(21, landmark.IndexTip), Handedness: "Right", Score: 0.8},
			},
			Pose: points(33, landmark.LeftAnkle),
			Face: points(468),
		})

		snap, err := ParseResponse(line, 2, ts)
		if err != nil {
			t.Fatalf("ParseResponse() error = %v", err)
		}

		if len(snap.Hands) != 2 {
			t.Fatalf("hands = %d, want 2", len(snap.Hands))
		}
		if snap.Hands[0].Handedness != "Left" || snap.Hands[1].Score != 0.8 {
			t.Errorf("hand metadata lost: %+v / %+v", snap.Hands[0].Handedness, snap.Hands[1].Score)
		}
		if _, ok := snap.Hands[1].At(landmark.IndexTip); ok {
			t.Error("null fingertip should be missing")
		}
		if _, ok := snap.Hands[1].At(landmark.ThumbTip); !ok {
			t.Error("thumb tip should be present")
		}
		if !snap.HasPose() || snap.Pose.Len() != landmark.NumPoseLandmarks {
			t.Fatalf("pose = %v", snap.Pose)
		}
		if _, ok := snap.Pose.At(landmark.LeftAnkle); ok {
			t.Error("null ankle should be missing")
		}
		if !snap.HasFace() || snap.Face.Len() != 468 {
			t.Errorf("face = %v", snap.Face)
		}
		if !snap.Timestamp.Equal(ts) {
			t.Errorf("timestamp = %v, want %v", snap.Timestamp, ts)
		}
	})

	t.Run("null pose and face", func(t *testing.T) {
		snap, err := ParseResponse([]byte(`{"hands":[],"pose":null,"face":null}`), 2, ts)
		if err != nil {
			t.Fatal(err)
		}
		if !snap.Empty() {
			t.Errorf("expected an empty snapshot, got %+v", snap)
		}
		if snap.Pose != nil || snap.Face != nil {
			t.Error("absent sets must stay nil")
		}
	})

	t.Run("short hand list pads with missing", func(t *testing.T) {
		line := encode(t, response{Hands: []jsonHand{{Points: points(10)}}})

		snap, err := ParseResponse(line, 2, ts)
		if err != nil {
			t.Fatal(err)
		}
		h := snap.Hands[0]
		if h.Len() != landmark.NumHandLandmarks {
			t.Errorf("hand has %d slots, want %d", h.Len(), landmark.NumHandLandmarks)
		}
		if _, ok := h.At(landmark.PinkyTip); ok {
			t.Error("unreported landmark should be missing")
		}
	})

	t.Run("hands are capped", func(t *testing.T) {
		line := encode(t, response{Hands: []jsonHand{
			{Points: points(21)}, {Points: points(21)}, {Points: points(21)},
		}})

		snap, err := ParseResponse(line, 1, ts)
		if err != nil {
			t.Fatal(err)
		}
		if len(snap.Hands) != 1 {
			t.Errorf("hands = %d, want 1", len(snap.Hands))
		}

		snap, _ = ParseResponse(line, 0, ts)
		if len(snap.Hands) != landmark.MaxHands {
			t.Errorf("hands = %d, want %d", len(snap.Hands), landmark.MaxHands)
		}
	})

	t.Run("service error", func(t *testing.T) {
		if _, err := ParseResponse([]byte(`{"error":"model failed"}`), 2, ts); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("malformed line", func(t *testing.T) {
		if _, err := ParseResponse([]byte(`{"hands":`), 2, ts); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns nothing by default", func(t *testing.T) {
		mock := NewMockDetector()

		snap, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !snap.Empty() {
			t.Errorf("expected an empty snapshot, got %+v", snap)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands(landmark.OpenPalm(), landmark.HandAt(0.2, 0.3))

		snap, err := mock.Detect(nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(snap.Hands) != 2 {
			t.Errorf("hands = %d, want 2", len(snap.Hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("calls = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		want := errors.New("detection failed")
		mock.SetError(want)

		snap, err := mock.Detect(nil)
		if !errors.Is(err, want) {
			t.Errorf("expected error %v, got %v", want, err)
		}
		if !snap.Empty() {
			t.Error("expected no landmarks with an error")
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		if err := NewMockDetector().Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})
}

func TestNewMediaPipeDetector_ScriptOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Script = filepath.Join(t.TempDir(), "missing.py")

	if _, err := NewMediaPipeDetector(cfg); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("missing script = %v, want ErrServiceNotFound", err)
	}

	cfg.Script = filepath.Join(t.TempDir(), serviceScript)
	if err := os.WriteFile(cfg.Script, []byte("# stub\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := NewMediaPipeDetector(cfg)
	if err != nil {
		t.Fatalf("existing script: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close before start = %v", err)
	}
}

func TestMediaPipeDetector_Args(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Face = false
	d := &MediaPipeDetector{config: cfg}

	args := d.args()

	want := map[string]bool{"--max-hands": false, "--no-face": false}
	for _, a := range args {
		if _, ok := want[a]; ok {
			want[a] = true
		}
		if a == "--no-pose" {
			t.Error("pose is enabled and should not be disabled")
		}
	}
	for a, seen := range want {
		if !seen {
			t.Errorf("missing %s in %v", a, args)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxHands != landmark.MaxHands || !cfg.Pose || !cfg.Face {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

var _ Detector = (*MockDetector)(nil)
var _ Detector = (*MediaPipeDetector)(nil)
