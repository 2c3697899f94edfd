package glyph

import (
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
)

// Palette is an ordered, fixed set of glyph colors.
type Palette []NamedColor

// NamedColor pairs a color with a display name for logs and config dumps.
type NamedColor struct {
	Name  string
	Color color.RGBA
}

// Rainbow is the default six-color palette.
var Rainbow = Palette{
	{"red", color.RGBA{R: 255, A: 255}},
	{"orange", color.RGBA{R: 255, G: 200, A: 255}},
	{"yellow", color.RGBA{R: 255, G: 255, A: 255}},
	{"green", color.RGBA{G: 255, A: 255}},
	{"blue", color.RGBA{B: 255, A: 255}},
	{"magenta", color.RGBA{R: 255, B: 255, A: 255}},
}

// Pick draws one entry uniformly at random.
func (p Palette) Pick(rng *rand.Rand) NamedColor {
	return p[rng.IntN(len(p))]
}

// Params holds the distortion constants. The zero value is not usable; start
// from [DefaultParams] and override fields.
type Params struct {
	// MaxRotationDeg bounds the random rotation to [-MaxRotationDeg, +MaxRotationDeg].
	MaxRotationDeg float64
	// MaxShear bounds the random x-shear factor to [-MaxShear, +MaxShear].
	MaxShear float64

	// WaveFreq and WavePhase shape wave = sin(2π·WaveFreq·t + WavePhase).
	WaveFreq  float64
	WavePhase float64
	// CosWaveFreq shapes cosWave = cos(2π·CosWaveFreq·t).
	CosWaveFreq float64

	// ScaleYAmp, ScaleXAmp and TranslateYAmp are the wave amplitude coefficients.
	ScaleYAmp     float64
	ScaleXAmp     float64
	TranslateYAmp float64

	// StartX is the baseline x of the first glyph.
	StartX int

	Palette Palette
}

// DefaultParams returns the standard distortion constants.
func DefaultParams() Params {
	return Params{
		MaxRotationDeg: 4,
		MaxShear:       0.1,
		WaveFreq:       2.5,
		WavePhase:      1.2,
		CosWaveFreq:    3.2,
		ScaleYAmp:      0.12,
		ScaleXAmp:      0.08,
		TranslateYAmp:  4,
		StartX:         5,
		Palette:        Rainbow,
	}
}

// Validate rejects parameters that would produce a degenerate transform.
// Every float must be finite, and scale amplitudes must stay below 1 so the
// glyph matrix is always invertible.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"max rotation", p.MaxRotationDeg},
		{"max shear", p.MaxShear},
		{"wave frequency", p.WaveFreq},
		{"wave phase", p.WavePhase},
		{"cosine wave frequency", p.CosWaveFreq},
		{"vertical scale amplitude", p.ScaleYAmp},
		{"horizontal scale amplitude", p.ScaleXAmp},
		{"vertical translate amplitude", p.TranslateYAmp},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be finite, got %g", f.name, f.v)
		}
	}

	switch {
	case p.MaxRotationDeg < 0 || p.MaxRotationDeg > 180:
		return errors.New(errors.ErrCodeInvalidConfig, "max rotation must be in [0, 180] degrees, got %g", p.MaxRotationDeg)
	case p.MaxShear < 0 || p.MaxShear >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "max shear must be in [0, 1), got %g", p.MaxShear)
	case p.ScaleYAmp < 0 || p.ScaleYAmp >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "vertical scale amplitude must be in [0, 1), got %g", p.ScaleYAmp)
	case p.ScaleXAmp < 0 || p.ScaleXAmp >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "horizontal scale amplitude must be in [0, 1), got %g", p.ScaleXAmp)
	case p.StartX < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "start x cannot be negative, got %d", p.StartX)
	case len(p.Palette) == 0:
		return errors.New(errors.ErrCodeInvalidConfig, "palette cannot be empty")
	}
	return nil
}
