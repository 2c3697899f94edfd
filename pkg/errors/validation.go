package errors

import (
	"strconv"
	"strings"
)

// ValidateDimensions checks that width and height describe a drawable canvas.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidDimensions, "dimensions must be positive, got %dx%d", width, height)
	}
	return nil
}

// ParseDimension parses a command-line width or height.
// Non-numeric input is reported as INVALID_DIMENSIONS, same as non-positive input.
func ParseDimension(name, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, Wrap(ErrCodeInvalidDimensions, err, "%s must be an integer, got %q", name, s)
	}
	if v <= 0 {
		return 0, New(ErrCodeInvalidDimensions, "%s must be positive, got %d", name, v)
	}
	return v, nil
}

// ValidateText rejects text that cannot be laid out. Invalid UTF-8 is not an
// error: each bad byte is drawn as U+FFFD.
func ValidateText(text string) error {
	if text == "" {
		return New(ErrCodeEmptyText, "text cannot be empty")
	}
	return nil
}

// ValidateOutputPath checks that an output filename is usable.
func ValidateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidInput, "output filename cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidInput, "output filename contains a null byte")
	}
	return nil
}
