// Package config loads render constants from a TOML file.
//
// Every field is optional: a file only needs the keys it changes, and the rest
// keep their [pipeline.DefaultParams] values. Colors are written as hex
// strings ("#rrggbb").
//
// Example file:
//
//	[glyph]
//	max_rotation_deg = 6.0
//
//	[[glyph.palette]]
//	name = "black"
//	color = "#000000"
//
//	[noise]
//	lines = 8
//
//	[gradient]
//	from = "#404040"
package config

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
	"github.com/matzehuels/wavecaptcha/pkg/pipeline"
	"github.com/matzehuels/wavecaptcha/pkg/render/filter"
	"github.com/matzehuels/wavecaptcha/pkg/render/glyph"
)

// File is the on-disk layout of a config file.
type File struct {
	Glyph    GlyphSection    `toml:"glyph"`
	Noise    NoiseSection    `toml:"noise"`
	Blur     BlurSection     `toml:"blur"`
	Gradient GradientSection `toml:"gradient"`
}

type GlyphSection struct {
	MaxRotationDeg *float64       `toml:"max_rotation_deg,omitempty"`
	MaxShear       *float64       `toml:"max_shear,omitempty"`
	WaveFreq       *float64       `toml:"wave_freq,omitempty"`
	WavePhase      *float64       `toml:"wave_phase,omitempty"`
	CosWaveFreq    *float64       `toml:"cos_wave_freq,omitempty"`
	ScaleYAmp      *float64       `toml:"scale_y_amp,omitempty"`
	ScaleXAmp      *float64       `toml:"scale_x_amp,omitempty"`
	TranslateYAmp  *float64       `toml:"translate_y_amp,omitempty"`
	StartX         *int           `toml:"start_x,omitempty"`
	Palette        []PaletteEntry `toml:"palette,omitempty"`
}

type PaletteEntry struct {
	Name  string `toml:"name"`
	Color string `toml:"color"`
}

type NoiseSection struct {
	Lines        *int    `toml:"lines,omitempty"`
	LineColor    *string `toml:"line_color,omitempty"`
	PixelDensity *int    `toml:"pixel_density,omitempty"`
}

// BlurSection selects a box kernel of the given odd size, at most
// [filter.MaxKernelSize].
type BlurSection struct {
	Size *int `toml:"size,omitempty"`
}

type GradientSection struct {
	From *string `toml:"from,omitempty"`
	To   *string `toml:"to,omitempty"`
}

// =============================================================================
// Loading
// =============================================================================

// Load reads path and overlays it on the default params. An empty path
// returns the defaults.
func Load(path string) (pipeline.Params, error) {
	if path == "" {
		return pipeline.DefaultParams(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Params{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	p, err := Parse(string(data))
	if err != nil {
		return pipeline.Params{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes TOML text and overlays it on the default params. Unknown keys
// are rejected.
func Parse(data string) (pipeline.Params, error) {
	var f File
	md, err := toml.Decode(data, &f)
	if err != nil {
		return pipeline.Params{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return pipeline.Params{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}

	p := pipeline.DefaultParams()
	if err := f.Apply(&p); err != nil {
		return pipeline.Params{}, err
	}
	if err := p.Validate(); err != nil {
		return pipeline.Params{}, err
	}
	return p, nil
}

// Apply writes every set field of f into p.
func (f File) Apply(p *pipeline.Params) error {
	g := f.Glyph
	setFloat(&p.Glyph.MaxRotationDeg, g.MaxRotationDeg)
	setFloat(&p.Glyph.MaxShear, g.MaxShear)
	setFloat(&p.Glyph.WaveFreq, g.WaveFreq)
	setFloat(&p.Glyph.WavePhase, g.WavePhase)
	setFloat(&p.Glyph.CosWaveFreq, g.CosWaveFreq)
	setFloat(&p.Glyph.ScaleYAmp, g.ScaleYAmp)
	setFloat(&p.Glyph.ScaleXAmp, g.ScaleXAmp)
	setFloat(&p.Glyph.TranslateYAmp, g.TranslateYAmp)
	setInt(&p.Glyph.StartX, g.StartX)

	if len(g.Palette) > 0 {
		palette := make(glyph.Palette, len(g.Palette))
		for i, e := range g.Palette {
			c, err := ParseColor(e.Color)
			if err != nil {
				return fmt.Errorf("glyph.palette[%d]: %w", i, err)
			}
			name := e.Name
			if name == "" {
				name = FormatColor(c)
			}
			palette[i] = glyph.NamedColor{Name: name, Color: c}
		}
		p.Glyph.Palette = palette
	}

	setInt(&p.Noise.Lines, f.Noise.Lines)
	setInt(&p.Noise.PixelDensity, f.Noise.PixelDensity)
	if err := setColor(&p.Noise.LineColor, f.Noise.LineColor, "noise.line_color"); err != nil {
		return err
	}

	if f.Blur.Size != nil {
		size := *f.Blur.Size
		if size <= 0 || size%2 == 0 || size > filter.MaxKernelSize {
			return errors.New(errors.ErrCodeInvalidConfig, "blur.size must be an odd number in [1, %d], got %d", filter.MaxKernelSize, size)
		}
		p.Blur = filter.BoxKernel(size)
	}

	if err := setColor(&p.GradientFrom, f.Gradient.From, "gradient.from"); err != nil {
		return err
	}
	return setColor(&p.GradientTo, f.Gradient.To, "gradient.to")
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setColor(dst *color.RGBA, v *string, key string) error {
	if v == nil {
		return nil
	}
	c, err := ParseColor(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = c
	return nil
}

// =============================================================================
// Encoding
// =============================================================================

// FromParams returns a File with every field set from p.
func FromParams(p pipeline.Params) File {
	g := p.Glyph
	palette := make([]PaletteEntry, len(g.Palette))
	for i, c := range g.Palette {
		palette[i] = PaletteEntry{Name: c.Name, Color: FormatColor(c.Color)}
	}
	return File{
		Glyph: GlyphSection{
			MaxRotationDeg: &g.MaxRotationDeg,
			MaxShear:       &g.MaxShear,
			WaveFreq:       &g.WaveFreq,
			WavePhase:      &g.WavePhase,
			CosWaveFreq:    &g.CosWaveFreq,
			ScaleYAmp:      &g.ScaleYAmp,
			ScaleXAmp:      &g.ScaleXAmp,
			TranslateYAmp:  &g.TranslateYAmp,
			StartX:         &g.StartX,
			Palette:        palette,
		},
		Noise: NoiseSection{
			Lines:        &p.Noise.Lines,
			LineColor:    ptr(FormatColor(p.Noise.LineColor)),
			PixelDensity: &p.Noise.PixelDensity,
		},
		Blur: BlurSection{Size: &p.Blur.Size},
		Gradient: GradientSection{
			From: ptr(FormatColor(p.GradientFrom)),
			To:   ptr(FormatColor(p.GradientTo)),
		},
	}
}

// Encode writes p to w as a complete config file.
func Encode(w io.Writer, p pipeline.Params) error {
	if err := toml.NewEncoder(w).Encode(FromParams(p)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

// =============================================================================
// Colors
// =============================================================================

// ParseColor parses "#rrggbb" (the leading '#' is optional) into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidConfig, "color %q must be #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "color %q must be #rrggbb", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// FormatColor renders c as "#rrggbb".
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
