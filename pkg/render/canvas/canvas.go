// Package canvas provides the fixed-size pixel buffer every render stage draws into.
//
// A [Canvas] wraps an opaque [image.RGBA]. Its dimensions are fixed at
// creation; stages mutate pixels in place or swap in a filtered buffer of the
// same bounds, so a canvas can be handed by pointer through the whole pipeline.
//
//	c := canvas.New(200, 80)
//	c.FillGradient(canvas.DefaultGradientFrom, canvas.DefaultGradientTo)
package canvas

import (
	"image"
	"image/color"
	"math"
)

// Default gradient endpoints: gray at the top-left corner, white at the bottom-right.
var (
	DefaultGradientFrom = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	DefaultGradientTo   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Canvas is a width×height grid of opaque RGB pixels.
type Canvas struct {
	img *image.RGBA
}

// New allocates a canvas. Width and height must already be validated as positive.
func New(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.img.Rect.Dx() }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Bounds returns the canvas rectangle, always anchored at the origin.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Rect }

// RGBA exposes the backing image for stages that composite with image/draw.
func (c *Canvas) RGBA() *image.RGBA { return c.img }

// At returns the pixel at (x, y).
func (c *Canvas) At(x, y int) color.RGBA { return c.img.RGBAAt(x, y) }

// Set writes an opaque pixel. Out-of-bounds writes are ignored.
func (c *Canvas) Set(x, y int, col color.RGBA) {
	col.A = 255
	c.img.SetRGBA(x, y, col)
}

// Replace swaps in a filtered image of identical bounds.
// It panics if the bounds differ, since dimensions are fixed for the canvas lifetime.
func (c *Canvas) Replace(img *image.RGBA) {
	if img.Rect != c.img.Rect {
		panic("canvas: replacement image has different bounds")
	}
	c.img = img
}

// FillGradient paints a linear gradient along the diagonal from (0,0) to
// (width,height). Each pixel takes the color at its projection onto that
// axis, clamped to the endpoints.
func (c *Canvas) FillGradient(from, to color.RGBA) {
	w, h := c.Width(), c.Height()
	dx, dy := float64(w), float64(h)
	lengthSq := dx*dx + dy*dy

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := (float64(x)*dx + float64(y)*dy) / lengthSq
			c.img.SetRGBA(x, y, lerp(from, to, t))
		}
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	t = max(0, min(t, 1))
	mix := func(p, q uint8) uint8 {
		return uint8(math.Round(float64(p) + (float64(q)-float64(p))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
