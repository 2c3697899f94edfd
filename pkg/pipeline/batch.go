package pipeline

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
)

// =============================================================================
// Batch Defaults
// =============================================================================

const (
	// DefaultCharset omits glyphs that are easy to confuse (0/O, 1/I/L).
	DefaultCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// DefaultBatchLength is the default text length of batch items.
	DefaultBatchLength = 5

	// MaxBatchCount bounds a single batch run.
	MaxBatchCount = 1_000_000
)

// =============================================================================
// BatchOptions - Dataset Generation
// =============================================================================

// BatchOptions configures the generation of many captchas with random text.
type BatchOptions struct {
	// Count is the number of images to write.
	Count int
	// Length is the number of characters per image.
	Length int
	// Charset is the alphabet texts are drawn from.
	Charset string

	Width  int
	Height int

	// OutDir receives one file per item, named <index>_<text>.png.
	OutDir string

	// Seed drives text selection; item i renders with Seed+i.
	Seed uint64

	// Jobs bounds concurrent renders; zero means GOMAXPROCS.
	Jobs int

	FontPath string
	FontSize float64
	Params   *Params

	// Progress, if set, is called after each item is written with the
	// number of items completed so far. It may be called concurrently.
	Progress func(done, total int)

	Logger *log.Logger
}

// BatchItem describes one generated file.
type BatchItem struct {
	Index int
	Text  string
	Path  string
	Seed  uint64
}

func (o *BatchOptions) validateAndSetDefaults() error {
	if o.Count <= 0 || o.Count > MaxBatchCount {
		return errors.New(errors.ErrCodeInvalidInput, "count must be in [1, %d], got %d", MaxBatchCount, o.Count)
	}
	if o.Length == 0 {
		o.Length = DefaultBatchLength
	}
	if o.Length < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "length must be positive, got %d", o.Length)
	}
	if o.Charset == "" {
		o.Charset = DefaultCharset
	}
	if err := validateCharset(o.Charset); err != nil {
		return err
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if o.OutDir == "" {
		o.OutDir = "."
	}
	if o.Jobs <= 0 {
		o.Jobs = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// validateCharset rejects characters that cannot appear in a file name.
func validateCharset(s string) error {
	if !utf8.ValidString(s) {
		return errors.New(errors.ErrCodeInvalidInput, "charset is not valid UTF-8")
	}
	for _, r := range s {
		if r == '/' || r == '\\' || r == filepath.Separator || unicode.IsControl(r) || unicode.IsSpace(r) {
			return errors.New(errors.ErrCodeInvalidInput, "charset contains unusable character %q", r)
		}
	}
	return nil
}

// Texts draws count strings of length runes from charset. The result depends
// only on the arguments.
func Texts(seed uint64, count, length int, charset string) []string {
	alphabet := []rune(charset)
	rng := NewRand(seed)
	texts := make([]string, count)
	var sb strings.Builder
	for i := range texts {
		sb.Reset()
		for range length {
			sb.WriteRune(alphabet[rng.IntN(len(alphabet))])
		}
		texts[i] = sb.String()
	}
	return texts
}

// Plan returns the items a batch will write without rendering anything.
func (o BatchOptions) Plan() ([]BatchItem, error) {
	if err := o.validateAndSetDefaults(); err != nil {
		return nil, err
	}
	return o.plan(), nil
}

func (o *BatchOptions) plan() []BatchItem {
	texts := Texts(o.Seed, o.Count, o.Length, o.Charset)
	items := make([]BatchItem, len(texts))
	for i, text := range texts {
		items[i] = BatchItem{
			Index: i,
			Text:  text,
			Path:  filepath.Join(o.OutDir, fmt.Sprintf("%d_%s.png", i, text)),
			Seed:  o.Seed + uint64(i),
		}
	}
	return items
}

// =============================================================================
// Batch Execution
// =============================================================================

// Batch writes opts.Count captchas into opts.OutDir. Texts and seeds are fixed
// up front, so the files are identical for any Jobs value. The first failure
// cancels items that have not started; finished files are kept.
func (r *Runner) Batch(ctx context.Context, opts BatchOptions) ([]BatchItem, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.validateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid batch options: %w", err)
	}
	items := opts.plan()
	opts.Logger.Debug("batch planned", "count", len(items), "jobs", opts.Jobs, "dir", opts.OutDir)

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := r.WriteFile(gctx, Options{
				Width:    opts.Width,
				Height:   opts.Height,
				Text:     item.Text,
				Seed:     item.Seed,
				FontPath: opts.FontPath,
				FontSize: opts.FontSize,
				Params:   opts.Params,
				Logger:   opts.Logger,
			}, item.Path)
			if err != nil {
				return fmt.Errorf("item %d (%s): %w", item.Index, item.Text, err)
			}
			n := int(done.Add(1))
			if opts.Progress != nil {
				opts.Progress(n, len(items))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// RandomSeed returns a seed from the runtime's entropy source.
func RandomSeed() uint64 {
	return rand.Uint64()
}
