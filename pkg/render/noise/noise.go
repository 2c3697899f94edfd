// Package noise overlays random line and speckle noise onto a finished canvas.
//
// Both passes draw all their randomness from the caller's source, so a fixed
// seed reproduces the same noise.
package noise

import (
	"image/color"
	"math/rand/v2"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
	"github.com/matzehuels/wavecaptcha/pkg/render/canvas"
)

// Spec configures the noise passes.
type Spec struct {
	// Lines is the number of straight overlay lines.
	Lines int
	// LineColor is the color of every overlay line.
	LineColor color.RGBA
	// PixelDensity sets speckle count to width*height/PixelDensity.
	PixelDensity int
}

// DefaultSpec returns 5 gray lines and speckle on about 2% of pixels.
func DefaultSpec() Spec {
	return Spec{
		Lines:        5,
		LineColor:    color.RGBA{R: 128, G: 128, B: 128, A: 255},
		PixelDensity: 50,
	}
}

// Validate rejects negative counts and a zero density.
func (s Spec) Validate() error {
	if s.Lines < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "noise line count cannot be negative, got %d", s.Lines)
	}
	if s.PixelDensity <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "pixel density must be positive, got %d", s.PixelDensity)
	}
	return nil
}

// PixelCount returns how many speckle writes a width×height canvas receives.
func (s Spec) PixelCount(width, height int) int {
	return width * height / s.PixelDensity
}

// Apply runs the line pass then the speckle pass, returning the speckle count.
func Apply(c *canvas.Canvas, rng *rand.Rand, s Spec) int {
	Lines(c, rng, s)
	return Speckle(c, rng, s)
}

// Lines draws s.Lines one-pixel lines. Each endpoint is uniform inside the
// canvas; coordinates are drawn in the order x1, y1, x2, y2.
func Lines(c *canvas.Canvas, rng *rand.Rand, s Spec) {
	w, h := c.Width(), c.Height()
	for i := 0; i < s.Lines; i++ {
		x1, y1 := rng.IntN(w), rng.IntN(h)
		x2, y2 := rng.IntN(w), rng.IntN(h)
		line(c, x1, y1, x2, y2, s.LineColor)
	}
}

// Speckle sets width*height/PixelDensity random pixels to random colors and
// returns the number of writes. Positions may repeat; later writes win.
func Speckle(c *canvas.Canvas, rng *rand.Rand, s Spec) int {
	w, h := c.Width(), c.Height()
	n := s.PixelCount(w, h)
	for i := 0; i < n; i++ {
		x, y := rng.IntN(w), rng.IntN(h)
		c.Set(x, y, color.RGBA{
			R: uint8(rng.IntN(256)),
			G: uint8(rng.IntN(256)),
			B: uint8(rng.IntN(256)),
		})
	}
	return n
}

// line rasterizes an aliased segment with Bresenham's algorithm, endpoints included.
func line(c *canvas.Canvas, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		c.Set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
