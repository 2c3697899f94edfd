// Package sink encodes finished canvases and writes them to disk.
package sink

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
)

// PNGOption configures PNG encoding.
type PNGOption func(*pngEncoder)

type pngEncoder struct {
	level png.CompressionLevel
	perm  os.FileMode
}

// WithCompression sets the zlib compression level (default png.DefaultCompression).
func WithCompression(level png.CompressionLevel) PNGOption {
	return func(e *pngEncoder) { e.level = level }
}

// WithFileMode sets the permission bits of written files (default 0644).
func WithFileMode(perm os.FileMode) PNGOption {
	return func(e *pngEncoder) { e.perm = perm }
}

func newEncoder(opts []PNGOption) pngEncoder {
	e := pngEncoder{level: png.DefaultCompression, perm: 0o644}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image, opts ...PNGOption) error {
	e := newEncoder(opts)
	enc := png.Encoder{CompressionLevel: e.level}
	if err := enc.Encode(w, img); err != nil {
		return errors.Wrap(errors.ErrCodeEncodeFailure, err, "encode png")
	}
	return nil
}

// RenderPNG returns img encoded as PNG bytes.
func RenderPNG(img image.Image, opts ...PNGOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePNG encodes img and writes it to path with [WriteFile].
func WritePNG(path string, img image.Image, opts ...PNGOption) error {
	data, err := RenderPNG(img, opts...)
	if err != nil {
		return err
	}
	return WriteFile(path, data, opts...)
}

// WriteFile writes data to path atomically: the data goes to a temporary
// file in the same directory which is renamed over path only after a
// successful write, sync and close. On failure the temporary file is removed
// and any existing file at path is left untouched.
func WriteFile(path string, data []byte, opts ...PNGOption) (err error) {
	e := newEncoder(opts)
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, err, "create %s", path)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, err, "write %s", path)
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, err, "sync %s", path)
	}
	if err = tmp.Chmod(e.perm); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, err, "chmod %s", path)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, err, "close %s", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, err, "rename to %s", path)
	}
	return nil
}
