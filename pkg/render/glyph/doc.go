// Package glyph plans and draws the distorted characters of a captcha.
//
// # Layout
//
// [Plan] assigns each character a baseline. With n characters on a canvas of
// width w, glyphs are rendered at size w/n and baselines advance by w/n
// starting at x=5. The normalized position t = x/w feeds two waves:
//
//	wave    = sin(2π·2.5·t + 1.2)
//	cosWave = cos(2π·3.2·t)
//
// These depend only on position, so the string bends smoothly regardless of
// the random source.
//
// # Distortion
//
// [NewDistortion] adds a random rotation in [-4°, 4°] and x-shear in
// [-0.1, 0.1], then [Distortion.Matrix] composes
//
//	Rotate · Shear · Scale(1, 1+0.12·wave) · Scale(1+0.08·cosWave, 1) · Translate(0, 4·wave)
//
// The matrix is a plain value built fresh for every glyph and passed to the
// draw call, so one glyph's rotation can never affect the next.
//
// # Drawing
//
// [Renderer.Draw] rasterizes the character with golang.org/x/image/font into
// a scratch image, placing the middle of its ink box on the canvas mid-height,
// and composites it onto the canvas through the matrix with
// golang.org/x/image/draw.
package glyph
