package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
	"github.com/matzehuels/wavecaptcha/pkg/fonts"
	"github.com/matzehuels/wavecaptcha/pkg/observability"
	"github.com/matzehuels/wavecaptcha/pkg/render/canvas"
	"github.com/matzehuels/wavecaptcha/pkg/render/filter"
	"github.com/matzehuels/wavecaptcha/pkg/render/glyph"
	"github.com/matzehuels/wavecaptcha/pkg/render/noise"
	"github.com/matzehuels/wavecaptcha/pkg/render/sink"
)

// Runner executes generation runs.
//
// The Runner holds only a logger and a cache of parsed fonts; it keeps no
// per-run state. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Logger *log.Logger

	mu    sync.Mutex
	fonts map[string]*opentype.Font
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Logger: logger,
		fonts:  make(map[string]*opentype.Font),
	}
}

// Generate is a convenience wrapper using a runner with the default logger.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	return NewRunner(nil).Generate(ctx, opts)
}

// Generate renders one captcha. The context is checked once before work
// starts; the pass itself runs to completion.
func (r *Runner) Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnGenerateStart(ctx, opts.Width, opts.Height, utf8.RuneCountInString(opts.Text))

	result, err := r.generate(ctx, opts)

	hooks.OnGenerateComplete(ctx, opts.Width, opts.Height, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	result.Stats.TotalTime = time.Since(start)
	return result, nil
}

func (r *Runner) generate(ctx context.Context, opts Options) (*Result, error) {
	p := opts.Params
	logger := opts.Logger

	layout, err := glyph.Plan(opts.Width, opts.Height, opts.Text, p.Glyph)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	f, err := r.loadFont(opts.FontPath)
	if err != nil {
		return nil, err
	}
	size := opts.FontSize
	if size == 0 {
		size = float64(layout.Tallness)
	}
	face, err := fonts.NewFace(f, size)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	rng := NewRand(opts.Seed)
	result := &Result{Seed: opts.Seed, Layout: layout}
	hooks := observability.Pipeline()
	mark := func(stage string, t time.Time, into *time.Duration) {
		*into = time.Since(t)
		hooks.OnStageComplete(ctx, stage, *into)
		logger.Debug("stage complete", "stage", stage, "duration", *into)
	}

	// Stage 1: Canvas
	t := time.Now()
	c := canvas.New(opts.Width, opts.Height)
	c.FillGradient(p.GradientFrom, p.GradientTo)
	mark(StageCanvas, t, &result.Stats.CanvasTime)

	// Stage 2: Glyphs
	t = time.Now()
	result.Glyphs = glyph.NewRenderer(face, p.Glyph, logger).Render(c, layout, rng)
	mark(StageGlyphs, t, &result.Stats.GlyphTime)

	// Stage 3: Noise
	t = time.Now()
	result.NoisePixels = noise.Apply(c, rng, p.Noise)
	mark(StageNoise, t, &result.Stats.NoiseTime)

	// Stage 4: Blur
	t = time.Now()
	c.Replace(filter.Convolve(c.RGBA(), p.Blur))
	mark(StageBlur, t, &result.Stats.BlurTime)

	result.Image = c.RGBA()
	return result, nil
}

// WriteFile generates a captcha and writes it to path as PNG. The path is
// checked before rendering; a failed write leaves no file behind.
func (r *Runner) WriteFile(ctx context.Context, opts Options, path string) (*Result, error) {
	if err := errors.ValidateOutputPath(path); err != nil {
		return nil, err
	}

	result, err := r.Generate(ctx, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := sink.RenderPNG(result.Image)
	if err == nil {
		err = sink.WriteFile(path, data)
	}
	result.Stats.EncodeTime = time.Since(start)
	observability.Output().OnWrite(ctx, path, len(data), result.Stats.EncodeTime, err)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	return result, nil
}

// loadFont returns the parsed font for path, parsing each path at most once.
func (r *Runner) loadFont(path string) (*opentype.Font, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fonts == nil {
		r.fonts = make(map[string]*opentype.Font)
	}
	if f, ok := r.fonts[path]; ok {
		return f, nil
	}
	f, err := fonts.Load(path)
	if err != nil {
		return nil, err
	}
	r.fonts[path] = f
	return f, nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// GenerateFile is a convenience wrapper for [Runner.WriteFile] using a runner
// with the default logger.
func GenerateFile(ctx context.Context, opts Options, path string) (*Result, error) {
	return NewRunner(nil).WriteFile(ctx, opts, path)
}
