package filter

import (
	"image"
	"math"
)

// Convolve applies k to src and returns a new image of the same bounds.
//
// Edge policy is no-op: a pixel whose window would extend past the image is
// copied unchanged. Interior results are rounded to the nearest integer and
// clamped to [0, 255]. Alpha is copied from the source.
func Convolve(src *image.RGBA, k Kernel) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	copy(dst.Pix, src.Pix)

	r := k.Radius()
	for y := b.Min.Y + r; y < b.Max.Y-r; y++ {
		for x := b.Min.X + r; x < b.Max.X-r; x++ {
			var sr, sg, sb float64
			wi := 0
			for ky := -r; ky <= r; ky++ {
				row := src.PixOffset(x-r, y+ky)
				for kx := 0; kx < k.Size; kx++ {
					w := k.Weights[wi]
					wi++
					i := row + kx*4
					sr += w * float64(src.Pix[i])
					sg += w * float64(src.Pix[i+1])
					sb += w * float64(src.Pix[i+2])
				}
			}
			o := dst.PixOffset(x, y)
			dst.Pix[o] = clamp8(sr)
			dst.Pix[o+1] = clamp8(sg)
			dst.Pix[o+2] = clamp8(sb)
		}
	}
	return dst
}

func clamp8(v float64) uint8 {
	return uint8(max(0, min(math.Round(v), 255)))
}
