// Package pipeline provides the captcha generation pipeline for wavecaptcha.
//
// This package sequences the render stages so the CLI and library callers
// get identical output for identical options and seed.
//
// # Architecture
//
// One generation is a single synchronous pass:
//
//  1. Canvas: allocate width×height and paint the diagonal gradient
//  2. Glyphs: plan baselines, then draw each character with its own distortion
//  3. Noise: overlay random lines and random speckle
//  4. Blur: 3×3 box blur with untouched edges
//
// The finished image is then handed to the PNG sink.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	result, err := runner.Generate(ctx, pipeline.Options{
//	    Width:  200,
//	    Height: 80,
//	    Text:   "AB",
//	    Seed:   42,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img := result.Image
//
// Generate and write in one call:
//
//	_, err := runner.WriteFile(ctx, opts, "captcha.png")
//
// # Randomness
//
// Every run builds its own random source from Options.Seed. There is no
// global source, so concurrent runs never interfere and a fixed seed always
// reproduces the same bytes.
package pipeline

import (
	"image"
	"image/color"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
	"github.com/matzehuels/wavecaptcha/pkg/render/canvas"
	"github.com/matzehuels/wavecaptcha/pkg/render/filter"
	"github.com/matzehuels/wavecaptcha/pkg/render/glyph"
	"github.com/matzehuels/wavecaptcha/pkg/render/noise"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 200

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 80

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)
)

// Stage names reported to observability hooks and debug logs.
const (
	StageCanvas = "canvas"
	StageGlyphs = "glyphs"
	StageNoise  = "noise"
	StageBlur   = "blur"
)

// NewRand returns the seeded source used for one generation run.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// =============================================================================
// Params - Render Constants
// =============================================================================

// Params collects every tunable constant of the render stages.
type Params struct {
	Glyph        glyph.Params
	Noise        noise.Spec
	Blur         filter.Kernel
	GradientFrom color.RGBA
	GradientTo   color.RGBA
}

// DefaultParams returns the standard render constants.
func DefaultParams() Params {
	return Params{
		Glyph:        glyph.DefaultParams(),
		Noise:        noise.DefaultSpec(),
		Blur:         filter.BoxKernel3(),
		GradientFrom: canvas.DefaultGradientFrom,
		GradientTo:   canvas.DefaultGradientTo,
	}
}

// Validate checks every stage's constants.
func (p Params) Validate() error {
	if err := p.Glyph.Validate(); err != nil {
		return err
	}
	if err := p.Noise.Validate(); err != nil {
		return err
	}
	return p.Blur.Validate()
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one generation run.
type Options struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Text   string `json:"text"`
	Seed   uint64 `json:"seed"`

	// FontPath selects a TrueType/OpenType file; empty uses the built-in font.
	FontPath string `json:"font_path,omitempty"`
	// FontSize overrides the glyph size; zero means width / character count.
	FontSize float64 `json:"font_size,omitempty"`

	// Params overrides the render constants; nil means DefaultParams.
	Params *Params `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks inputs and fills defaults. It runs before any
// canvas is allocated. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if err := errors.ValidateText(o.Text); err != nil {
		return err
	}
	if o.FontSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "font size cannot be negative, got %g", o.FontSize)
	}
	if o.Params == nil {
		p := DefaultParams()
		o.Params = &p
	}
	if err := o.Params.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Result contains the outputs of a generation run.
type Result struct {
	// Image is the finished canvas, exactly Width×Height.
	Image *image.RGBA

	// Seed is the seed the run used.
	Seed uint64

	// Layout is the planned glyph placement.
	Layout glyph.Layout

	// Glyphs records the distortion and color of each drawn glyph.
	Glyphs []glyph.Record

	// NoisePixels is the number of speckle writes.
	NoisePixels int

	// Stats contains timing information.
	Stats Stats
}

// Stats contains per-stage timings.
type Stats struct {
	CanvasTime time.Duration
	GlyphTime  time.Duration
	NoiseTime  time.Duration
	BlurTime   time.Duration
	EncodeTime time.Duration
	TotalTime  time.Duration
}
