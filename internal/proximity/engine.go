// Package proximity turns per-frame hand, body and face landmarks into a
// smoothed proximity scalar and a discrete complexity level.
package proximity

import (
	"math"

	"github.com/ayusman/resonance/internal/landmark"
)

// Config holds the proximity engine constants.
type Config struct {
	// MaxBodyDist is the screen distance at which the body sample reaches 0.
	MaxBodyDist float64 `yaml:"max_body_dist"`
	// MaxFaceDist is the screen distance at which the face sample reaches 0.
	MaxFaceDist float64 `yaml:"max_face_dist"`
	// Smoothing is the fraction of the gap to the new sample closed per tick.
	Smoothing float64 `yaml:"smoothing"`
	// MinComplexity and MaxComplexity bound the complexity level.
	MinComplexity int `yaml:"min_complexity"`
	MaxComplexity int `yaml:"max_complexity"`
}

// DefaultConfig returns a Config with the installation's tuned values.
func DefaultConfig() Config {
	return Config{
		MaxBodyDist:   400,
		MaxFaceDist:   300,
		Smoothing:     0.1,
		MinComplexity: 1,
		MaxComplexity: 6,
	}
}

// Sample is an optional proximity sample; OK is false when nothing could be
// measured this frame.
type Sample struct {
	Value    float64
	Distance float64 // minimum screen distance the value was mapped from
	OK       bool
}

// Result is the outcome of one Update.
type Result struct {
	Body       Sample
	Face       Sample
	Combined   Sample
	Previous   float64 // proximity state before this update
	Proximity  float64 // proximity state after this update
	Complexity int
	Reset      bool // true when an empty frame forced the state to 0
}

// Engine owns the proximity state across frames.
type Engine struct {
	config Config
	state  float64
	face   []int
}

// New creates an Engine with the proximity state at 0.
func New(config Config) *Engine {
	if config.Smoothing <= 0 || config.Smoothing > 1 {
		config.Smoothing = DefaultConfig().Smoothing
	}
	if config.MaxComplexity <= config.MinComplexity {
		config.MinComplexity = DefaultConfig().MinComplexity
		config.MaxComplexity = DefaultConfig().MaxComplexity
	}
	return &Engine{
		config: config,
		face:   landmark.FaceKeyPoints(),
	}
}

// State returns the current proximity state.
func (e *Engine) State() float64 {
	return e.state
}

// Complexity returns the complexity level for the current state.
func (e *Engine) Complexity() int {
	return e.complexityFor(e.state)
}

// Reset forces the proximity state to 0.
func (e *Engine) Reset() {
	e.state = 0
}

// Update consumes one frame of landmarks and advances the proximity state.
//
// An empty snapshot is a hard reset to 0. Otherwise the body sample is always
// taken: with no fingertip/reference pair (hands gone, or no pose) it is 0 and
// the state decays toward it.
func (e *Engine) Update(snap *landmark.Snapshot, vp landmark.Viewport) Result {
	res := Result{Previous: e.state}

	if snap.Empty() {
		e.state = 0
		res.Reset = true
		res.Proximity = 0
		res.Complexity = e.complexityFor(0)
		return res
	}

	tips := fingerTips(snap, vp)

	refs := landmark.ComputeReferences(snap.Pose)
	targets := landmark.Defined(refs.ProximityTargets())
	res.Body = Sample{Distance: math.Inf(1), OK: true}
	if d, ok := minDistance(tips, refVecs(targets, vp)); ok {
		res.Body.Value = falloff(d, e.config.MaxBodyDist)
		res.Body.Distance = d
	}

	if snap.HasFace() {
		if d, ok := minDistance(tips, setVecs(*snap.Face, e.face, vp)); ok {
			res.Face = Sample{Value: falloff(d, e.config.MaxFaceDist), Distance: d, OK: true}
		}
	}

	res.Combined = res.Body
	if res.Face.OK {
		res.Combined = Sample{Value: (res.Body.Value + res.Face.Value) / 2, OK: true}
	}

	e.state = clamp01(lerp(e.state, res.Combined.Value, e.config.Smoothing))

	res.Proximity = e.state
	res.Complexity = e.complexityFor(e.state)
	return res
}

func (e *Engine) complexityFor(state float64) int {
	lo := float64(e.config.MinComplexity)
	hi := float64(e.config.MaxComplexity)
	return int(math.Round(Map(clamp01(state), 0, 1, lo, hi)))
}

// fingerTips maps every present fingertip of every hand to screen space.
func fingerTips(snap *landmark.Snapshot, vp landmark.Viewport) []landmark.Vec {
	var out []landmark.Vec
	for _, hand := range snap.Hands {
		for _, i := range landmark.FingerTips {
			if v, ok := vp.ScreenAt(hand.Set, i); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

func refVecs(refs []landmark.Ref, vp landmark.Viewport) []landmark.Vec {
	out := make([]landmark.Vec, 0, len(refs))
	for _, r := range refs {
		out = append(out, vp.ToScreen(r.Point))
	}
	return out
}

func setVecs(s landmark.Set, indices []int, vp landmark.Viewport) []landmark.Vec {
	out := make([]landmark.Vec, 0, len(indices))
	for _, i := range indices {
		if v, ok := vp.ScreenAt(s, i); ok {
			out = append(out, v)
		}
	}
	return out
}

// minDistance returns the smallest distance over all pairs, or false when
// either side is empty.
func minDistance(a, b []landmark.Vec) (float64, bool) {
	best := math.Inf(1)
	for _, p := range a {
		for _, q := range b {
			if d := p.Dist(q); d < best {
				best = d
			}
		}
	}
	if math.IsInf(best, 1) || math.IsNaN(best) {
		return 0, false
	}
	return best, true
}

// falloff maps a distance to [0,1]: 0 distance is 1, maxDist and beyond is 0.
func falloff(d, maxDist float64) float64 {
	if maxDist <= 0 {
		return 0
	}
	return clamp01(Map(d, 0, maxDist, 1, 0))
}
