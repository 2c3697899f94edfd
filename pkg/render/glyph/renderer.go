package glyph

import (
	"image"
	"image/color"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/wavecaptcha/pkg/render/canvas"
)

// Record describes one drawn glyph.
type Record struct {
	Placement  Placement
	Distortion Distortion
	Matrix     Matrix
	Color      NamedColor
}

// Renderer draws distorted glyphs onto a canvas. A Renderer owns a font.Face
// and must not be shared between goroutines.
type Renderer struct {
	face   font.Face
	params Params
	logger *log.Logger
}

// NewRenderer creates a renderer. A nil logger discards output.
func NewRenderer(face font.Face, p Params, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Renderer{face: face, params: p, logger: logger}
}

// Render draws every placement in order. For each glyph it draws rotation,
// shear and color from rng, in that order. Each glyph gets its own matrix;
// nothing carries over from one glyph to the next.
func (r *Renderer) Render(c *canvas.Canvas, l Layout, rng *rand.Rand) []Record {
	records := make([]Record, 0, len(l.Placements))
	for _, pl := range l.Placements {
		d := NewDistortion(pl, rng, r.params)
		col := r.params.Palette.Pick(rng)
		m := r.Draw(c, pl, d, col.Color)

		r.logger.Debug("drew glyph",
			"char", string(pl.Char),
			"x", pl.BaselineX,
			"next_x", pl.BaselineX+l.Step,
			"rotation", d.RotationDeg,
			"shear", d.Shear,
			"color", col.Name)

		records = append(records, Record{Placement: pl, Distortion: d, Matrix: m, Color: col})
	}
	return records
}

// Draw rasterizes one character into a scratch image with the middle of its
// ink box on pl.CenterY, then resamples that image onto the canvas through the
// distortion matrix.
// It returns the matrix used. Characters without ink (spaces) draw nothing.
func (r *Renderer) Draw(c *canvas.Canvas, pl Placement, d Distortion, col color.RGBA) Matrix {
	m := d.Matrix()
	s := string(pl.Char)

	bounds, _ := font.BoundString(r.face, s)
	if bounds.Empty() {
		return m
	}

	// Bounds are relative to the dot; shift the baseline so the ink's
	// vertical midpoint sits on CenterY.
	mid := (bounds.Min.Y + bounds.Max.Y) / 2
	baseY := pl.CenterY - mid.Round()

	// Glyph box in canvas user space, padded for antialiasing.
	box := image.Rect(
		bounds.Min.X.Floor()-1, bounds.Min.Y.Floor()-1,
		bounds.Max.X.Ceil()+1, bounds.Max.Y.Ceil()+1,
	).Add(image.Pt(pl.BaselineX, baseY))

	// The scratch image is anchored at the origin; its offset moves into the matrix.
	src := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	drawer := font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(col),
		Face: r.face,
		Dot:  fixed.P(pl.BaselineX-box.Min.X, baseY-box.Min.Y),
	}
	drawer.DrawString(s)

	s2d := m.Multiply(Translate(float64(box.Min.X), float64(box.Min.Y)))
	xdraw.ApproxBiLinear.Transform(c.RGBA(), s2d.Aff3(), src, src.Bounds(), xdraw.Over, nil)
	return m
}
