// Package filter implements the convolution used to soften the final canvas.
package filter

import (
	"math"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
)

// MaxKernelSize is the largest accepted kernel side length.
const MaxKernelSize = 15

// Kernel is a square convolution matrix with odd side length, stored row-major.
type Kernel struct {
	Size    int
	Weights []float64
}

// BoxKernel generates a size×size box (uniform) kernel. All weights are
// 1/(size*size), so the kernel sums to 1.
func BoxKernel(size int) Kernel {
	n := size * size
	w := make([]float64, n)
	val := 1 / float64(n)
	for i := range w {
		w[i] = val
	}
	return Kernel{Size: size, Weights: w}
}

// BoxKernel3 is the default 3×3 smoothing kernel.
func BoxKernel3() Kernel {
	return BoxKernel(3)
}

// Sum returns the total weight.
func (k Kernel) Sum() float64 {
	var s float64
	for _, w := range k.Weights {
		s += w
	}
	return s
}

// Radius is the number of pixels the window extends past its center.
func (k Kernel) Radius() int {
	return k.Size / 2
}

// Validate checks shape. Weights summing to something other than 1 are
// allowed but will brighten or darken the image.
func (k Kernel) Validate() error {
	if k.Size <= 0 || k.Size%2 == 0 || k.Size > MaxKernelSize {
		return errors.New(errors.ErrCodeInvalidConfig, "kernel size must be an odd number in [1, %d], got %d", MaxKernelSize, k.Size)
	}
	if len(k.Weights) != k.Size*k.Size {
		return errors.New(errors.ErrCodeInvalidConfig, "kernel has %d weights, want %d", len(k.Weights), k.Size*k.Size)
	}
	for _, w := range k.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "kernel weights must be finite")
		}
	}
	return nil
}
