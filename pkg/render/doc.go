// Package render groups the stages that turn a string into a captcha image.
//
// # Overview
//
// The stages run in a fixed order, each mutating one shared canvas:
//
//   - [canvas]: allocate the buffer and paint the diagonal gradient
//   - [glyph]: plan baselines, then draw each character with its own affine distortion
//   - [noise]: overlay random lines and random single-pixel speckle
//   - [filter]: soften everything with a 3×3 box blur
//   - [sink]: encode the result as PNG and write it atomically
//
// The pipeline package sequences these stages; the subpackages can also be
// used on their own.
//
//	c := canvas.New(200, 80)
//	c.FillGradient(canvas.DefaultGradientFrom, canvas.DefaultGradientTo)
//	layout, _ := glyph.Plan(200, 80, "AB", glyph.DefaultParams())
//	glyph.NewRenderer(face, glyph.DefaultParams(), nil).Render(c, layout, rng)
//	noise.Apply(c, rng, noise.DefaultSpec())
//	c.Replace(filter.Convolve(c.RGBA(), filter.BoxKernel3()))
//	err := sink.WritePNG("captcha.png", c.RGBA())
//
// [canvas]: github.com/matzehuels/wavecaptcha/pkg/render/canvas
// [glyph]: github.com/matzehuels/wavecaptcha/pkg/render/glyph
// [noise]: github.com/matzehuels/wavecaptcha/pkg/render/noise
// [filter]: github.com/matzehuels/wavecaptcha/pkg/render/filter
// [sink]: github.com/matzehuels/wavecaptcha/pkg/render/sink
package render
