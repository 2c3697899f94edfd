// Package pkg provides the core libraries for wavecaptcha image generation.
//
// # Overview
//
// Wavecaptcha draws a string as a CAPTCHA image: every character is rotated,
// sheared and wave-scaled on its own, colored from a fixed palette, placed
// over a diagonal gradient, covered with line and speckle noise and softened
// with a box blur. The pkg directory is organized into these areas:
//
//  1. [render] - The render stages (canvas, glyph, noise, filter) and the PNG sink
//  2. [pipeline] - Orchestration of one run, and batches of runs
//  3. [config] - TOML overrides for every render constant
//  4. [fonts] - Built-in and user-supplied font loading
//  5. [errors], [observability], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The data flow of one generation:
//
//	Options (width, height, text, seed)
//	         ↓
//	    [render/canvas] gradient fill
//	         ↓
//	    [render/glyph] layout plan, per-glyph affine distortion and draw
//	         ↓
//	    [render/noise] gray lines, random speckle
//	         ↓
//	    [render/filter] 3×3 box blur, edges untouched
//	         ↓
//	    [render/sink] PNG bytes or atomic file write
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/wavecaptcha/pkg/pipeline"
//	)
//
//	_, err := pipeline.GenerateFile(context.Background(), pipeline.Options{
//	    Width:  200,
//	    Height: 80,
//	    Text:   "AB",
//	    Seed:   42,
//	}, "captcha.png")
//
// # Determinism
//
// All randomness comes from a per-run source seeded by Options.Seed, so the
// same options always produce the same PNG bytes, including across batch
// runs with different worker counts.
package pkg
