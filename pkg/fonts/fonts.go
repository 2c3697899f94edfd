// Package fonts provides the typefaces used to rasterize captcha glyphs.
//
// The default typeface is Go Bold, compiled into the binary through
// golang.org/x/image/font/gofont, so rendering works without any font files
// on the host. A TrueType or OpenType file can be loaded instead with [Load].
//
// A parsed [opentype.Font] is safe to share between goroutines; a [font.Face]
// is not. Every generation run should call [NewFace] for its own face.
package fonts

import (
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
)

// DefaultName identifies the built-in typeface in logs and config dumps.
const DefaultName = "Go Bold"

// Parsed default font (computed once on first access).
var (
	defaultFont     *opentype.Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

// Default returns the built-in bold typeface.
func Default() (*opentype.Font, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = opentype.Parse(gobold.TTF)
		if defaultFontErr != nil {
			defaultFontErr = errors.Wrap(errors.ErrCodeFontLoad, defaultFontErr, "parse built-in font")
		}
	})
	return defaultFont, defaultFontErr
}

// Load reads and parses a TrueType/OpenType file. An empty path returns [Default].
func Load(path string) (*opentype.Font, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontLoad, err, "read font %s", path)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontLoad, err, "parse font %s", path)
	}
	return f, nil
}

// NewFace creates a face at the given pixel size. Sizes below one pixel are
// raised to one so a very narrow canvas with long text still rasterizes.
func NewFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    max(size, 1),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontLoad, err, "create face (size %.1f)", size)
	}
	return face, nil
}
