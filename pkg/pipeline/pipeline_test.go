package pipeline

import (
	"bytes"
	"context"
	"flag"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
	"github.com/matzehuels/wavecaptcha/pkg/observability"
	"github.com/matzehuels/wavecaptcha/pkg/render/sink"
)

var update = flag.Bool("update", false, "rewrite golden files in testdata")

const goldenPath = "testdata/ab_200x80_seed42.png"

func defaultOptions() Options {
	return Options{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Text:   "AB",
		Seed:   DefaultSeed,
	}
}

func renderBytes(t *testing.T, opts Options) []byte {
	t.Helper()
	result, err := Generate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	data, err := sink.RenderPNG(result.Image)
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	return data
}

// =============================================================================
// Options
// =============================================================================

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"valid", defaultOptions(), ""},
		{"zero width", Options{Width: 0, Height: 80, Text: "AB"}, errors.ErrCodeInvalidDimensions},
		{"negative height", Options{Width: 200, Height: -1, Text: "AB"}, errors.ErrCodeInvalidDimensions},
		{"empty text", Options{Width: 200, Height: 80, Text: ""}, errors.ErrCodeEmptyText},
		{"negative font size", Options{Width: 200, Height: 80, Text: "AB", FontSize: -1}, errors.ErrCodeInvalidConfig},
		{"bad params", Options{Width: 200, Height: 80, Text: "AB", Params: &Params{}}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateAndSetDefaults() error = %v", err)
				}
				if tt.opts.Params == nil || tt.opts.Logger == nil {
					t.Error("defaults not applied")
				}
				return
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err = %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestDefaultParamsValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("DefaultParams().Validate() = %v", err)
	}
}

// =============================================================================
// Generate
// =============================================================================

func TestGenerateDimensions(t *testing.T) {
	tests := []struct {
		w, h int
		text string
	}{
		{200, 80, "AB"},
		{1, 1, "A"},
		{3, 3, "xyz"},
		{320, 100, "wave"},
		{50, 200, "Ünï"},
	}

	for _, tt := range tests {
		result, err := Generate(context.Background(), Options{Width: tt.w, Height: tt.h, Text: tt.text, Seed: 7})
		if err != nil {
			t.Fatalf("Generate(%dx%d, %q) error = %v", tt.w, tt.h, tt.text, err)
		}
		b := result.Image.Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("Generate(%dx%d) image = %dx%d", tt.w, tt.h, b.Dx(), b.Dy())
		}
		if want := tt.w * tt.h / 50; result.NoisePixels != want {
			t.Errorf("NoisePixels = %d, want %d", result.NoisePixels, want)
		}
	}
}

func TestGenerateOpaque(t *testing.T) {
	result, err := Generate(context.Background(), defaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	pix := result.Image.Pix
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 255 {
			t.Fatalf("pixel %d alpha = %d, want 255", i/4, pix[i])
		}
	}
}

func TestGenerateGlyphRecords(t *testing.T) {
	result, err := Generate(context.Background(), Options{Width: 200, Height: 80, Text: "héllo", Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Glyphs) != 5 {
		t.Fatalf("len(Glyphs) = %d, want 5", len(result.Glyphs))
	}
	if result.Layout.Step != 40 {
		t.Errorf("Layout.Step = %d, want 40", result.Layout.Step)
	}
	for i, g := range result.Glyphs {
		if g.Placement.Index != i {
			t.Errorf("glyph %d index = %d", i, g.Placement.Index)
		}
		if d := g.Distortion.RotationDeg; d < -4 || d > 4 {
			t.Errorf("glyph %d rotation = %g, want within [-4, 4]", i, d)
		}
		if s := g.Distortion.Shear; s < -0.1 || s > 0.1 {
			t.Errorf("glyph %d shear = %g, want within [-0.1, 0.1]", i, s)
		}
	}
}

func TestGenerateSingleCharacter(t *testing.T) {
	result, err := Generate(context.Background(), Options{Width: 120, Height: 60, Text: "Q", Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	if result.Layout.Step != 120 || result.Layout.Tallness != 120 {
		t.Errorf("Step, Tallness = %d, %d, want 120, 120", result.Layout.Step, result.Layout.Tallness)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := renderBytes(t, defaultOptions())
	b := renderBytes(t, defaultOptions())
	if !bytes.Equal(a, b) {
		t.Error("same seed produced different PNG bytes")
	}

	other := defaultOptions()
	other.Seed = 43
	if bytes.Equal(a, renderBytes(t, other)) {
		t.Error("different seeds produced identical PNG bytes")
	}
}

func TestGenerateConcurrentRunsIndependent(t *testing.T) {
	want := renderBytes(t, defaultOptions())
	runner := NewRunner(nil)

	var wg sync.WaitGroup
	got := make([][]byte, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := runner.Generate(context.Background(), defaultOptions())
			if err != nil {
				t.Error(err)
				return
			}
			got[i], _ = sink.RenderPNG(result.Image)
		}()
	}
	wg.Wait()

	for i, data := range got {
		if !bytes.Equal(data, want) {
			t.Errorf("run %d differs from sequential output", i)
		}
	}
}

func TestGenerateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Generate(ctx, defaultOptions()); err != context.Canceled {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestGenerateBadFont(t *testing.T) {
	opts := defaultOptions()
	opts.FontPath = filepath.Join(t.TempDir(), "missing.ttf")
	_, err := Generate(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeFontLoad) {
		t.Errorf("Generate() error = %v, want %s", err, errors.ErrCodeFontLoad)
	}
}

// TestGenerateGolden renders the reference scenario ("AB", 200x80, seed 42).
// The structural checks always run; the byte comparison runs once the golden
// file has been written with -update.
func TestGenerateGolden(t *testing.T) {
	opts := defaultOptions()
	result, err := Generate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got, err := sink.RenderPNG(result.Image)
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 200 || b.Dy() != 80 {
		t.Fatalf("decoded image = %dx%d, want 200x80", b.Dx(), b.Dy())
	}
	for y := 0; y < 80; y++ {
		for x := 0; x < 200; x++ {
			r, g, b, a := decoded.At(x, y).RGBA()
			want := result.Image.RGBAAt(x, y)
			if a != 0xffff {
				t.Fatalf("pixel (%d,%d) alpha = %d, want opaque", x, y, a>>8)
			}
			if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
				t.Fatalf("pixel (%d,%d) = %d,%d,%d, want %v", x, y, r>>8, g>>8, b>>8, want)
			}
		}
	}

	if len(result.Glyphs) != 2 {
		t.Fatalf("len(Glyphs) = %d, want 2", len(result.Glyphs))
	}
	if diff := cmp.Diff([]int{5, 105}, []int{result.Glyphs[0].Placement.BaselineX, result.Glyphs[1].Placement.BaselineX}); diff != "" {
		t.Errorf("baselines mismatch (-want +got):\n%s", diff)
	}
	if result.Layout.Tallness != 100 {
		t.Errorf("Tallness = %d, want 100", result.Layout.Tallness)
	}
	if result.NoisePixels != 320 {
		t.Errorf("NoisePixels = %d, want 320", result.NoisePixels)
	}
	if again := renderBytes(t, opts); !bytes.Equal(got, again) {
		t.Error("second render of the same scenario differs")
	}

	if *update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(goldenPath, got, 0o644); err != nil {
			t.Fatal(err)
		}
		return
	}

	want, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		t.Logf("%s missing; run go test -update to pin the exact bytes", goldenPath)
		return
	}
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("output differs from %s; run go test -update if the change is intended", goldenPath)
	}
}

func TestGenerateAcceptsAnyText(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantGlyphs int
	}{
		{"invalid utf8", Options{Width: 200, Height: 80, Text: "A\xffB", Seed: 1}, 3},
		{"lone continuation byte", Options{Width: 100, Height: 40, Text: "\x80", Seed: 2}, 1},
		{"wide canvas", Options{Width: 9000, Height: 10, Text: "AB", FontSize: 8, Seed: 3}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Generate(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(result.Glyphs) != tt.wantGlyphs {
				t.Errorf("len(Glyphs) = %d, want %d", len(result.Glyphs), tt.wantGlyphs)
			}
			if b := result.Image.Bounds(); b.Dx() != tt.opts.Width || b.Dy() != tt.opts.Height {
				t.Errorf("image = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.opts.Width, tt.opts.Height)
			}
		})
	}
}

func TestGenerateInvalidUTF8DrawsReplacement(t *testing.T) {
	result, err := Generate(context.Background(), Options{Width: 200, Height: 80, Text: "A\xffB", Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := result.Glyphs[1].Placement.Char; got != utf8.RuneError {
		t.Errorf("glyph 1 char = %U, want %U", got, utf8.RuneError)
	}
}

// =============================================================================
// WriteFile
// =============================================================================

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if _, err := NewRunner(nil).WriteFile(context.Background(), defaultOptions(), path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, renderBytes(t, defaultOptions())) {
		t.Error("written file differs from in-memory encoding")
	}
}

func TestWriteFileErrorsLeaveNoFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		opts     Options
		path     string
		wantCode errors.Code
	}{
		{"zero width", Options{Width: 0, Height: 80, Text: "AB"}, filepath.Join(dir, "w.png"), errors.ErrCodeInvalidDimensions},
		{"empty text", Options{Width: 200, Height: 80, Text: ""}, filepath.Join(dir, "t.png"), errors.ErrCodeEmptyText},
		{"missing dir", defaultOptions(), filepath.Join(dir, "nope", "x.png"), errors.ErrCodeWriteFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateFile(context.Background(), tt.opts, tt.path)
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err = %v)", got, tt.wantCode, err)
			}
			if _, statErr := os.Stat(tt.path); !os.IsNotExist(statErr) {
				t.Errorf("file %s exists after failure", tt.path)
			}
		})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("leftover files: %v", entries)
	}
}

// =============================================================================
// Hooks
// =============================================================================

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopOutputHooks

	mu      sync.Mutex
	starts  int
	stages  []string
	ends    int
	writes  int
	lastErr error
}

func (h *recordingHooks) OnGenerateStart(context.Context, int, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
}

func (h *recordingHooks) OnStageComplete(_ context.Context, stage string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stages = append(h.stages, stage)
}

func (h *recordingHooks) OnGenerateComplete(_ context.Context, _, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ends++
	h.lastErr = err
}

func (h *recordingHooks) OnWrite(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes++
}

func TestHooksCalled(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetOutputHooks(h)
	defer observability.Reset()

	path := filepath.Join(t.TempDir(), "hooked.png")
	if _, err := GenerateFile(context.Background(), defaultOptions(), path); err != nil {
		t.Fatal(err)
	}

	if h.starts != 1 || h.ends != 1 || h.writes != 1 {
		t.Errorf("starts, ends, writes = %d, %d, %d, want 1, 1, 1", h.starts, h.ends, h.writes)
	}
	want := []string{StageCanvas, StageGlyphs, StageNoise, StageBlur}
	if diff := cmp.Diff(want, h.stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	if h.lastErr != nil {
		t.Errorf("OnGenerateComplete err = %v", h.lastErr)
	}
}

// =============================================================================
// Batch
// =============================================================================

func TestTextsDeterministic(t *testing.T) {
	a := Texts(9, 20, 6, DefaultCharset)
	b := Texts(9, 20, 6, DefaultCharset)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Texts not deterministic (-a +b):\n%s", diff)
	}
	for _, s := range a {
		if len([]rune(s)) != 6 {
			t.Errorf("text %q length = %d, want 6", s, len([]rune(s)))
		}
		for _, r := range s {
			if !strings.ContainsRune(DefaultCharset, r) {
				t.Errorf("text %q contains %q outside charset", s, r)
			}
		}
	}
}

func TestBatchPlan(t *testing.T) {
	items, err := BatchOptions{Count: 3, Length: 4, OutDir: "out", Seed: 100}.Plan()
	if err != nil {
		t.Fatal(err)
	}
	texts := Texts(100, 3, 4, DefaultCharset)
	for i, item := range items {
		want := BatchItem{
			Index: i,
			Text:  texts[i],
			Path:  filepath.Join("out", strconv.Itoa(i)+"_"+texts[i]+".png"),
			Seed:  100 + uint64(i),
		}
		if diff := cmp.Diff(want, item); diff != "" {
			t.Errorf("item %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestBatchOptionsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		opts     BatchOptions
		wantCode errors.Code
	}{
		{"zero count", BatchOptions{Count: 0}, errors.ErrCodeInvalidInput},
		{"negative length", BatchOptions{Count: 1, Length: -2}, errors.ErrCodeInvalidInput},
		{"slash in charset", BatchOptions{Count: 1, Charset: "AB/"}, errors.ErrCodeInvalidInput},
		{"newline in charset", BatchOptions{Count: 1, Charset: "AB\n"}, errors.ErrCodeInvalidInput},
		{"negative width", BatchOptions{Count: 1, Width: -5}, errors.ErrCodeInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Plan()
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err = %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestBatchIdenticalAcrossJobs(t *testing.T) {
	run := func(jobs int) map[string][]byte {
		dir := t.TempDir()
		var mu sync.Mutex
		var seen []int
		_, err := NewRunner(nil).Batch(context.Background(), BatchOptions{
			Count:  6,
			Length: 3,
			Width:  90,
			Height: 40,
			OutDir: dir,
			Seed:   5,
			Jobs:   jobs,
			Progress: func(done, _ int) {
				mu.Lock()
				seen = append(seen, done)
				mu.Unlock()
			},
		})
		if err != nil {
			t.Fatalf("Batch(jobs=%d) error = %v", jobs, err)
		}
		sort.Ints(seen)
		if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6}, seen); diff != "" {
			t.Errorf("progress mismatch (-want +got):\n%s", diff)
		}

		files := map[string][]byte{}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				t.Fatal(err)
			}
			files[e.Name()] = data
		}
		return files
	}

	serial := run(1)
	parallel := run(4)
	if len(serial) != 6 {
		t.Fatalf("jobs=1 wrote %d files, want 6", len(serial))
	}
	if diff := cmp.Diff(serial, parallel); diff != "" {
		t.Errorf("jobs=1 and jobs=4 outputs differ (-serial +parallel):\n%s", diff)
	}
}

func TestBatchWriteFailure(t *testing.T) {
	_, err := NewRunner(nil).Batch(context.Background(), BatchOptions{
		Count:  2,
		OutDir: filepath.Join(t.TempDir(), "missing"),
	})
	if !errors.Is(err, errors.ErrCodeWriteFailure) {
		t.Errorf("Batch() error = %v, want %s", err, errors.ErrCodeWriteFailure)
	}
}
