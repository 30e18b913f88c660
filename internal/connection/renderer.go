// Package connection draws the light strands between hands, body and face.
//
// Every connection family is a Category table; the renderer walks the point
// pairs selected by the category's topology and emits polylines, particles
// and fingertip glows onto a render.Canvas.
package connection

import (
	"math"
	"math/rand"

	"github.com/ayusman/resonance/internal/landmark"
	"github.com/ayusman/resonance/internal/proximity"
	"github.com/ayusman/resonance/internal/render"
)

// Config selects and tunes the categories.
type Config struct {
	// Disabled lists category names that emit nothing.
	Disabled []string `yaml:"disabled"`
	// MinProximity overrides per-category proximity gates by name.
	MinProximity map[string]float64 `yaml:"min_proximity"`
	// Overrides replaces individual table values by category name.
	Overrides map[string]Override `yaml:"overrides"`
	Glow      Glow                `yaml:"glow"`
	// Seed for particle randomness; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns every category enabled with its stock gate.
func DefaultConfig() Config {
	return Config{Glow: DefaultGlow()}
}

// Input is everything one Render call depends on.
type Input struct {
	Snapshot   *landmark.Snapshot
	Viewport   landmark.Viewport
	Proximity  float64
	FaceSample float64
	Complexity int
	Frame      uint64
}

// Stats counts what one Render call emitted.
type Stats struct {
	Pairs     map[string]int // connections drawn per category
	Polylines int
	Particles int
	Glows     int // fingertips that received a halo
}

// Renderer turns landmark pairs into draw commands.
// It is not safe for concurrent use.
type Renderer struct {
	categories []Category
	glow       Glow
	rng        *rand.Rand

	faceKeys []int
	line     []landmark.Vec
}

// New builds a renderer from the default tables with cfg applied.
// rng drives particle emission; pass a seeded source for reproducible output.
func New(cfg Config, rng *rand.Rand) *Renderer {
	return NewWithCategories(DefaultCategories(), cfg, rng)
}

// NewWithCategories builds a renderer from custom tables with cfg applied.
func NewWithCategories(categories []Category, cfg Config, rng *rand.Rand) *Renderer {
	cats := make([]Category, len(categories))
	copy(cats, categories)

	disabled := make(map[string]bool, len(cfg.Disabled))
	for _, name := range cfg.Disabled {
		disabled[name] = true
	}
	for i := range cats {
		if disabled[cats[i].Name] {
			cats[i].Enabled = false
		}
		if gate, ok := cfg.MinProximity[cats[i].Name]; ok {
			cats[i].MinProximity = gate
		}
		if o, ok := cfg.Overrides[cats[i].Name]; ok {
			o.apply(&cats[i])
		}
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	return &Renderer{
		categories: cats,
		glow:       cfg.Glow,
		rng:        rng,
		faceKeys:   landmark.FaceKeyPoints(),
	}
}

// Categories returns a copy of the active tables.
func (r *Renderer) Categories() []Category {
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Render draws every enabled category, then the fingertip glows.
func (r *Renderer) Render(in Input, c render.Canvas) Stats {
	stats := Stats{Pairs: make(map[string]int, len(r.categories))}
	if in.Snapshot.Empty() {
		return stats
	}

	for i := range r.categories {
		cat := &r.categories[i]
		if !cat.Enabled || in.Proximity < cat.MinProximity {
			continue
		}
		r.eachPair(cat, in, func(a, b landmark.Vec) {
			if r.connect(cat, in, a, b, c, &stats) {
				stats.Pairs[cat.Name]++
			}
		})
	}

	if r.glow.Enabled {
		stats.Glows = r.drawGlows(in, c)
	}
	return stats
}

// eachPair calls fn for every present point pair of the category's topology.
func (r *Renderer) eachPair(cat *Category, in Input, fn func(a, b landmark.Vec)) {
	snap := in.Snapshot
	vp := in.Viewport

	switch cat.Topology {
	case BodyLinks:
		refs := landmark.Defined(landmark.ComputeReferences(snap.Pose).ConnectionTargets())
		for _, ref := range refs {
			target := vp.ToScreen(ref.Point)
			forHandPoints(snap, vp, cat.HandPoints, func(p landmark.Vec) { fn(target, p) })
		}

	case FaceLinks:
		if !snap.HasFace() {
			return
		}
		for _, fi := range r.faceKeys {
			target, ok := vp.ScreenAt(*snap.Face, fi)
			if !ok {
				continue
			}
			forHandPoints(snap, vp, cat.HandPoints, func(p landmark.Vec) { fn(target, p) })
		}

	case FaceMesh:
		if !snap.HasFace() {
			return
		}
		net := landmark.FaceNetwork
		for i := 0; i < len(net); i++ {
			a, ok := vp.ScreenAt(*snap.Face, net[i])
			if !ok {
				continue
			}
			for j := i + 1; j < len(net); j++ {
				if b, ok := vp.ScreenAt(*snap.Face, net[j]); ok {
					fn(a, b)
				}
			}
		}

	case FingerWeb:
		for h := range snap.Hands {
			if h >= landmark.MaxHands {
				break
			}
			hand := snap.Hands[h].Set
			tips := landmark.FingerTips
			for i := 0; i < len(tips); i++ {
				a, ok := vp.ScreenAt(hand, tips[i])
				if !ok {
					continue
				}
				for j := i + 1; j < len(tips); j++ {
					if b, ok := vp.ScreenAt(hand, tips[j]); ok {
						fn(a, b)
					}
				}
			}
		}

	case HandBridge:
		left, okL := snap.Hand(0)
		right, okR := snap.Hand(1)
		if !okL || !okR {
			return
		}
		for _, tip := range landmark.FingerTips {
			a, okA := vp.ScreenAt(left.Set, tip)
			b, okB := vp.ScreenAt(right.Set, tip)
			if okA && okB {
				fn(a, b)
			}
		}
	}
}

func forHandPoints(snap *landmark.Snapshot, vp landmark.Viewport, indices []int, fn func(landmark.Vec)) {
	for h := range snap.Hands {
		if h >= landmark.MaxHands {
			return
		}
		for _, i := range indices {
			if p, ok := vp.ScreenAt(snap.Hands[h].Set, i); ok {
				fn(p)
			}
		}
	}
}

// connect draws one pair and reports whether anything was emitted.
func (r *Renderer) connect(cat *Category, in Input, a, b landmark.Vec, c render.Canvas, stats *Stats) bool {
	p := in.Proximity
	if cat.UseFaceSample {
		p = in.FaceSample
	}

	maxDist := cat.MaxDist + cat.MaxDistGrowth*in.Proximity
	d := a.Dist(b)
	if !(d < maxDist) {
		return false
	}

	intensity := Intensity(d, maxDist, cat.Gain+cat.GainProximity*p, cat.Exponent)
	if intensity <= 0 {
		return false
	}

	layers := cat.Layers
	if layers <= 0 {
		layers = complexitySteps(in.Complexity)
	}
	waves := cat.Waves
	if cat.ComplexityWaves {
		waves = complexityWaves(in.Complexity)
	}
	strands := cat.Strands
	if len(strands) == 0 {
		strands = []float64{0}
	}
	anim := float64(in.Frame) * cat.TimeScale

	for k := 0; k < layers; k++ {
		alpha := proximity.Map(float64(k), 0, float64(layers), cat.LayerAlpha*intensity, 0)
		weight := cat.Weight + cat.WeightProximity*in.Proximity + cat.WeightLayerStep*float64(layers-1-k)
		col := cat.Color
		col.A = render.White(alpha).A

		for _, offset := range strands {
			r.line = r.trace(r.line[:0], cat, a, b, intensity, anim, waves, offset)
			c.Polyline(r.line, weight, col)
			stats.Polylines++
		}
	}

	chance := proximity.Map(float64(in.Complexity), 1, 6, cat.ParticleChance, cat.ParticleChanceMax) * intensity
	if chance > 0 && r.rng.Float64() < chance {
		t := r.rng.Float64()
		pos := a.Lerp(b, t)
		pos.X += r.uniform(-cat.ParticleJitter, cat.ParticleJitter)
		pos.Y += r.uniform(-cat.ParticleJitter, cat.ParticleJitter)
		size := r.uniform(cat.ParticleSize, cat.ParticleSize+cat.ParticleSizeProximity*in.Proximity)
		col := cat.Color
		col.A = render.White(cat.ParticleAlpha * intensity).A
		c.Circle(pos, size, col)
		stats.Particles++
	}
	return true
}

// trace samples the displaced segment from a to b into dst.
func (r *Renderer) trace(dst []landmark.Vec, cat *Category, a, b landmark.Vec, intensity, anim float64, waves []Wave, offset float64) []landmark.Vec {
	step := cat.Step
	if step <= 0 || step > 1 {
		step = 0.05
	}
	n := int(math.Round(1 / step))

	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		p := a.Lerp(b, t)

		var dx, dy float64
		for _, w := range waves {
			phase := t*math.Pi*w.Freq + anim*w.Speed
			v := math.Sin(phase)
			if w.Cos {
				v = math.Cos(phase)
			}
			v *= w.Amp * intensity
			if w.X {
				dx += v
			}
			if w.Y {
				dy += v
			}
		}

		shift := offset
		if cat.Spiral {
			shift = math.Sin(t*math.Pi*2) * offset * intensity
		}
		dst = append(dst, landmark.Vec{X: p.X + dx + shift, Y: p.Y + dy + shift})
	}
	return dst
}

// drawGlows draws the halo on every present fingertip and returns the count.
func (r *Renderer) drawGlows(in Input, c render.Canvas) int {
	g := r.glow
	n := 0
	forHandPoints(in.Snapshot, in.Viewport, landmark.FingerTips, func(p landmark.Vec) {
		c.Circle(p, g.CoreSize, render.White(g.CoreAlpha))
		if g.SizeStep > 0 {
			for size := g.MaxSize; size > 0; size -= g.SizeStep {
				c.Circle(p, size, render.White(proximity.Map(size, g.MaxSize, 0, 0, g.MaxAlpha)))
			}
		}
		n++
	})
	return n
}

func (r *Renderer) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.Float64()*(hi-lo)
}

// Intensity maps a pair distance to a brightness in [0,1]:
// clamp(pow(clamp(map(d,0,maxDist,1,0))·gain, exponent)).
func Intensity(d, maxDist, gain, exponent float64) float64 {
	if maxDist <= 0 {
		return 0
	}
	lin := proximity.Clamp(proximity.Map(d, 0, maxDist, 1, 0), 0, 1)
	v := lin * gain
	if v <= 0 {
		return 0
	}
	if exponent > 0 {
		v = math.Pow(v, exponent)
	}
	return proximity.Clamp(v, 0, 1)
}

// complexitySteps is floor(map(complexity,1,6,1,3)).
func complexitySteps(complexity int) int {
	n := int(math.Floor(proximity.Map(float64(complexity), 1, 6, 1, 3)))
	if n < 1 {
		return 1
	}
	return n
}

func complexityWaves(complexity int) []Wave {
	n := complexitySteps(complexity)
	waves := make([]Wave, n)
	for w := 1; w <= n; w++ {
		waves[w-1] = Wave{Freq: float64(2 * w), Speed: 1, Amp: float64(2 + w), X: true, Y: true}
	}
	return waves
}
