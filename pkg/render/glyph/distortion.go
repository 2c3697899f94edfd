package glyph

import (
	"math"
	"math/rand/v2"
)

// Distortion is the per-glyph geometric perturbation. Rotation and shear are
// random; the scale and translate terms follow the placement's wave values.
type Distortion struct {
	RotationDeg float64
	Shear       float64
	ScaleX      float64
	ScaleY      float64
	TranslateY  float64
}

// NewDistortion draws the random terms for one glyph. Rotation is drawn
// before shear; callers that need reproducible output must keep that order.
func NewDistortion(pl Placement, rng *rand.Rand, p Params) Distortion {
	rotation := rng.Float64()*2*p.MaxRotationDeg - p.MaxRotationDeg
	shear := rng.Float64()*2*p.MaxShear - p.MaxShear
	return Distortion{
		RotationDeg: rotation,
		Shear:       shear,
		ScaleY:      1 + p.ScaleYAmp*pl.Wave,
		ScaleX:      1 + p.ScaleXAmp*pl.CosWave,
		TranslateY:  p.TranslateYAmp * pl.Wave,
	}
}

// Matrix composes rotate, shear, vertical scale, horizontal scale and
// vertical translate, left to right. The result maps glyph space to canvas
// space, so the translate is applied to the glyph first and the rotation
// last. All terms act about the canvas origin.
func (d Distortion) Matrix() Matrix {
	return Rotate(d.RotationDeg * math.Pi / 180).
		Multiply(Shear(d.Shear, 0)).
		Multiply(Scale(1, d.ScaleY)).
		Multiply(Scale(d.ScaleX, 1)).
		Multiply(Translate(0, d.TranslateY))
}
