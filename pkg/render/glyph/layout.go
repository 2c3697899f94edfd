package glyph

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
)

// Placement is where one character is drawn, plus the position-derived wave
// values that drive its deterministic distortion.
type Placement struct {
	Index     int
	Char      rune
	BaselineX int
	// CenterY is where the vertical center of the glyph's ink lands.
	CenterY int

	T       float64 // BaselineX / width
	Wave    float64 // sin(2π·WaveFreq·T + WavePhase)
	CosWave float64 // cos(2π·CosWaveFreq·T)
}

// Layout is the planned placement of every character in the string.
type Layout struct {
	Width, Height int
	// Tallness is the glyph render size in pixels (width / character count).
	Tallness int
	// Step is the horizontal distance between successive baselines.
	Step       int
	Placements []Placement
}

// Plan computes baselines and wave values for text on a width×height canvas.
// Characters are counted as runes. Baselines start at p.StartX and advance by
// width/n; every glyph is centered vertically on the canvas mid-height.
func Plan(width, height int, text string, p Params) (Layout, error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return Layout{}, err
	}
	if err := errors.ValidateText(text); err != nil {
		return Layout{}, err
	}

	n := utf8.RuneCountInString(text)
	step := width / n
	l := Layout{
		Width:      width,
		Height:     height,
		Tallness:   step,
		Step:       step,
		Placements: make([]Placement, 0, n),
	}

	x := p.StartX
	i := 0
	for _, r := range text {
		t := float64(x) / float64(width)
		l.Placements = append(l.Placements, Placement{
			Index:     i,
			Char:      r,
			BaselineX: x,
			CenterY:   height / 2,
			T:         t,
			Wave:      math.Sin(2*math.Pi*p.WaveFreq*t + p.WavePhase),
			CosWave:   math.Cos(2 * math.Pi * p.CosWaveFreq * t),
		})
		x += step
		i++
	}
	return l, nil
}
