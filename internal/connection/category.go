package connection

import (
	"image/color"

	"github.com/ayusman/resonance/internal/landmark"
)

// Topology selects which point pairs a category connects.
type Topology int

const (
	// BodyLinks connects hand points to body reference points.
	BodyLinks Topology = iota
	// FaceLinks connects hand points to the curated face subset.
	FaceLinks
	// FaceMesh connects face network points with each other.
	FaceMesh
	// HandBridge connects the same fingertip across the two hands.
	HandBridge
	// FingerWeb connects fingertips within one hand.
	FingerWeb
)

// String returns the topology name.
func (t Topology) String() string {
	switch t {
	case BodyLinks:
		return "body"
	case FaceLinks:
		return "face"
	case FaceMesh:
		return "facenet"
	case HandBridge:
		return "hands"
	case FingerWeb:
		return "fingers"
	default:
		return "unknown"
	}
}

// Wave is one periodic displacement term along a connection:
// f(t·π·Freq + time·Speed)·Amp·intensity, where f is sin or cos.
type Wave struct {
	Cos   bool
	Freq  float64
	Speed float64
	Amp   float64
	X, Y  bool // axes the term is added to
}

// Category is one family of connections and its visual tables.
type Category struct {
	Name     string
	Topology Topology
	Enabled  bool

	// HandPoints are the hand landmark indices used by BodyLinks and FaceLinks.
	HandPoints []int

	// MinProximity gates the whole category on the proximity state.
	MinProximity float64

	// maxDist = MaxDist + MaxDistGrowth·p
	MaxDist       float64
	MaxDistGrowth float64

	// I = clamp(pow(lin·(Gain + GainProximity·p), Exponent))
	Gain          float64
	GainProximity float64
	Exponent      float64
	// UseFaceSample makes p the face proximity sample instead of the state.
	UseFaceSample bool

	// Layers is the number of stacked strokes; 0 derives it from complexity.
	Layers     int
	LayerAlpha float64

	// weight = Weight + WeightProximity·p + WeightLayerStep·(layers-1-k)
	Weight          float64
	WeightProximity float64
	WeightLayerStep float64

	// Step is the parametric sampling step along the segment.
	Step      float64
	TimeScale float64
	Waves     []Wave
	// ComplexityWaves adds n = floor(map(complexity,1,6,1,3)) waves,
	// the w-th being sin(t·π·2w + time)·(2+w) on both axes.
	ComplexityWaves bool

	// Strands are per-polyline offsets. With Spiral the offset is scaled by
	// sin(t·π·2)·intensity; otherwise it is a constant shift on both axes.
	Strands []float64
	Spiral  bool

	// Particle chance is map(complexity,1,6,ParticleChance,ParticleChanceMax)·I.
	ParticleChance        float64
	ParticleChanceMax     float64
	ParticleAlpha         float64
	ParticleSize          float64
	ParticleSizeProximity float64 // size is uniform in [size, size+this·p]
	ParticleJitter        float64

	Color color.RGBA
}

// Override holds the table values a config file may change for one
// category. Nil fields keep the built-in value.
type Override struct {
	MaxDist           *float64 `yaml:"max_dist"`
	MaxDistGrowth     *float64 `yaml:"max_dist_growth"`
	Gain              *float64 `yaml:"gain"`
	GainProximity     *float64 `yaml:"gain_proximity"`
	Exponent          *float64 `yaml:"exponent"`
	Layers            *int     `yaml:"layers"`
	LayerAlpha        *float64 `yaml:"layer_alpha"`
	Weight            *float64 `yaml:"weight"`
	WeightProximity   *float64 `yaml:"weight_proximity"`
	WeightLayerStep   *float64 `yaml:"weight_layer_step"`
	Step              *float64 `yaml:"step"`
	TimeScale         *float64 `yaml:"time_scale"`
	ParticleChance    *float64 `yaml:"particle_chance"`
	ParticleChanceMax *float64 `yaml:"particle_chance_max"`
}

func (o Override) apply(c *Category) {
	setFloat(&c.MaxDist, o.MaxDist)
	setFloat(&c.MaxDistGrowth, o.MaxDistGrowth)
	setFloat(&c.Gain, o.Gain)
	setFloat(&c.GainProximity, o.GainProximity)
	setFloat(&c.Exponent, o.Exponent)
	if o.Layers != nil && *o.Layers >= 0 {
		c.Layers = *o.Layers
	}
	setFloat(&c.LayerAlpha, o.LayerAlpha)
	setFloat(&c.Weight, o.Weight)
	setFloat(&c.WeightProximity, o.WeightProximity)
	setFloat(&c.WeightLayerStep, o.WeightLayerStep)
	// A non-positive step would never reach the end of a segment.
	if o.Step != nil && *o.Step > 0 {
		c.Step = *o.Step
	}
	setFloat(&c.TimeScale, o.TimeScale)
	setFloat(&c.ParticleChance, o.ParticleChance)
	setFloat(&c.ParticleChanceMax, o.ParticleChanceMax)
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Glow describes the halo drawn on every fingertip.
type Glow struct {
	Enabled   bool    `yaml:"enabled"`
	CoreSize  float64 `yaml:"core_size"`
	CoreAlpha float64 `yaml:"core_alpha"`
	MaxSize   float64 `yaml:"max_size"`
	SizeStep  float64 `yaml:"size_step"`
	MaxAlpha  float64 `yaml:"max_alpha"`
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// DefaultGlow returns the fingertip halo: a bright core and concentric rings
// whose alpha grows toward the center.
func DefaultGlow() Glow {
	return Glow{
		Enabled:   true,
		CoreSize:  3,
		CoreAlpha: 200,
		MaxSize:   15,
		SizeStep:  3,
		MaxAlpha:  100,
	}
}

// DefaultCategories returns the connection tables in draw order.
func DefaultCategories() []Category {
	wristAndTips := append([]int{landmark.Wrist}, landmark.FingerTips...)

	return []Category{
		{
			Name:            "body",
			Topology:        BodyLinks,
			Enabled:         true,
			HandPoints:      append([]int(nil), landmark.FingerTips...),
			MinProximity:    0.1,
			MaxDist:         350,
			MaxDistGrowth:   150,
			Gain:            0.5,
			GainProximity:   0.5,
			Exponent:        0.4,
			LayerAlpha:      255,
			Weight:          0.8,
			WeightProximity: 0.2,
			Step:            0.05,
			TimeScale:       0.1,
			ComplexityWaves: true,
			Strands:         []float64{0},

			ParticleChance:        0.02,
			ParticleChanceMax:     0.08,
			ParticleAlpha:         150,
			ParticleSize:          0.8,
			ParticleSizeProximity: 1,
			ParticleJitter:        1,
			Color:                 white,
		},
		{
			Name:            "face",
			Topology:        FaceLinks,
			Enabled:         true,
			HandPoints:      wristAndTips,
			MinProximity:    0.08,
			MaxDist:         250,
			Gain:            0.4,
			GainProximity:   0.3,
			Exponent:        0.5,
			UseFaceSample:   true,
			Layers:          2,
			LayerAlpha:      60,
			Weight:          0.3,
			WeightLayerStep: 0.1,
			Step:            0.03,
			TimeScale:       0.05,
			Waves: []Wave{
				{Freq: 4, Speed: 1, Amp: 1.5, X: true},
				{Cos: true, Freq: 6, Speed: 0.7, Amp: 1, Y: true},
			},
			Strands: []float64{0},

			ParticleChance:    0.04,
			ParticleChanceMax: 0.04,
			ParticleAlpha:     40,
			ParticleSize:      0.5,
			ParticleJitter:    0.5,
			Color:             white,
		},
		{
			Name:       "facenet",
			Topology:   FaceMesh,
			Enabled:    true,
			MaxDist:    120,
			Gain:       1,
			Exponent:   1.5,
			Layers:     1,
			LayerAlpha: 30,
			Weight:     0.2,
			Step:       0.05,
			TimeScale:  0.02,
			Waves: []Wave{
				{Freq: 2, Speed: 1, Amp: 0.5, X: true, Y: true},
			},
			Strands: []float64{0},
			Color:   white,
		},
		{
			Name:            "fingers",
			Topology:        FingerWeb,
			Enabled:         true,
			MaxDist:         200,
			Gain:            1,
			Exponent:        1,
			Layers:          4,
			LayerAlpha:      100,
			Weight:          0.3,
			WeightLayerStep: 0.2,
			Step:            0.02,
			TimeScale:       1,
			Waves: []Wave{
				{Freq: 3, Speed: 0.1, Amp: 2, X: true},
				{Cos: true, Freq: 5, Speed: 0.08, Amp: 1.5, X: true, Y: true},
				{Freq: 7, Speed: 0.15, Amp: 1, X: true, Y: true},
			},
			Strands: []float64{-1, -0.5, 0, 0.5, 1},
			Color:   white,
		},
		{
			Name:            "hands",
			Topology:        HandBridge,
			Enabled:         true,
			MaxDist:         250,
			Gain:            1,
			Exponent:        1,
			Layers:          5,
			LayerAlpha:      150,
			Weight:          0.4,
			WeightLayerStep: 0.15,
			Step:            0.02,
			TimeScale:       0.1,
			Waves: []Wave{
				{Freq: 4, Speed: 1, Amp: 3, X: true},
				{Cos: true, Freq: 6, Speed: 0.7, Amp: 2, X: true, Y: true},
				{Freq: 8, Speed: 1.2, Amp: 1, X: true, Y: true},
				{Cos: true, Freq: 3, Speed: 0.5, Amp: 4, Y: true},
			},
			Strands: []float64{-2, -1, 0, 1, 2},
			Spiral:  true,
			Color:   white,
		},
	}
}
