package detector

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/resonance/internal/landmark"
)

// response is one JSON line from the landmark service.
//
//	{"hands":[{"points":[...],"handedness":"Left","score":0.9}],"pose":[...]|null,"face":[...]|null}
//
// A null entry inside a point list marks a landmark the model did not place.
type response struct {
	Hands []jsonHand   `json:"hands"`
	Pose  []*jsonPoint `json:"pose"`
	Face  []*jsonPoint `json:"face"`
	Error string       `json:"error,omitempty"`
}

type jsonHand struct {
	Points     []*jsonPoint `json:"points"`
	Handedness string       `json:"handedness"`
	Score      float64      `json:"score"`
}

type jsonPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// ParseResponse decodes one service line into a snapshot stamped with ts.
// At most maxHands hands are kept, in the order the service reported them.
func ParseResponse(line []byte, maxHands int, ts time.Time) (landmark.Snapshot, error) {
	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return landmark.Snapshot{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return landmark.Snapshot{}, fmt.Errorf("landmark service: %s", resp.Error)
	}

	snap := landmark.Snapshot{Timestamp: ts}

	if maxHands <= 0 || maxHands > landmark.MaxHands {
		maxHands = landmark.MaxHands
	}
	for _, h := range resp.Hands {
		if len(snap.Hands) == maxHands {
			break
		}
		if len(h.Points) == 0 {
			continue
		}
		snap.Hands = append(snap.Hands, landmark.Hand{
			Set:        toSet(landmark.KindHand, h.Points, landmark.NumHandLandmarks),
			Handedness: h.Handedness,
			Score:      h.Score,
		})
	}

	if len(resp.Pose) > 0 {
		pose := toSet(landmark.KindPose, resp.Pose, landmark.NumPoseLandmarks)
		snap.Pose = &pose
	}
	if len(resp.Face) > 0 {
		face := toSet(landmark.KindFace, resp.Face, len(resp.Face))
		snap.Face = &face
	}

	return snap, nil
}

// toSet builds a set of exactly size slots. Slots that are null or beyond the
// reported list are missing.
func toSet(kind landmark.Kind, points []*jsonPoint, size int) landmark.Set {
	pts := make([]landmark.Point, size)
	for i := 0; i < size && i < len(points); i++ {
		if p := points[i]; p != nil {
			pts[i] = landmark.Point{X: p.X, Y: p.Y, Z: p.Z, Visibility: p.Visibility}
		}
	}

	set := landmark.NewSet(kind, pts)
	for i := 0; i < size; i++ {
		if i >= len(points) || points[i] == nil {
			set.Drop(i)
		}
	}
	return set
}
