// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package surface implements the per-frame drawable described in
// §4.2 of the specification: a minimal drawing vocabulary backed by
// a real pixel buffer, plus a shadow image that mirrors it for cheap
// preview capture. All coordinates are clipped to the surface
// bounds; out-of-range calls are no-ops.
package surface

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/cogentcore/ledpanel/colorx"
)

// ReadPixelFunc optionally reads a single pixel back from the
// backing device, for use when the shadow buffer cannot answer a
// Capture (see the Capture fallback order below).
type ReadPixelFunc func(x, y int) (c colorx.Color, ok bool)

// Surface is the concrete drawable handed to scenes each frame. It
// owns both the real pixel buffer (what the panel actually shows)
// and a shadow image mirroring it for preview capture.
type Surface struct {
	width, height int
	pixels        *image.RGBA
	shadow        *image.RGBA
	readPixel     ReadPixelFunc
}

// New creates a Surface of the given size, logically cleared to
// black. readPixel may be nil if the backend supports no readback.
func New(width, height int, readPixel ReadPixelFunc) *Surface {
	return &Surface{
		width:     width,
		height:    height,
		pixels:    image.NewRGBA(image.Rect(0, 0, width, height)),
		shadow:    image.NewRGBA(image.Rect(0, 0, width, height)),
		readPixel: readPixel,
	}
}

// Clear replaces both the pixel buffer and the shadow with black.
func (s *Surface) Clear() {
	black := image.NewUniform(colorx.Color{}.NRGBA())
	draw.Draw(s.pixels, s.pixels.Bounds(), black, image.Point{}, draw.Src)
	draw.Draw(s.shadow, s.shadow.Bounds(), black, image.Point{}, draw.Src)
}

// Fill replaces both the pixel buffer and the shadow with a solid color.
func (s *Surface) Fill(c colorx.Color) {
	flat := image.NewUniform(c.NRGBA())
	draw.Draw(s.pixels, s.pixels.Bounds(), flat, image.Point{}, draw.Src)
	draw.Draw(s.shadow, s.shadow.Bounds(), flat, image.Point{}, draw.Src)
}

// SetPixel writes a single pixel to the real buffer only. The shadow
// is deliberately left stale here: per-pixel shadow writes are the
// documented performance/fidelity trade-off of §4.2 — Capture falls
// back to backend readback (or a stale shadow) when a scene draws
// exclusively with SetPixel.
func (s *Surface) SetPixel(x, y int, c colorx.Color) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	s.pixels.Set(x, y, c.NRGBA())
}

// SetImage replaces the surface with img, resizing with nearest
// neighbor if the shape differs and converting to RGB. Both the
// pixel buffer and the shadow are updated, satisfying the
// shadow-buffer law: capture() immediately after SetImage returns an
// image equal to img (resized, converted to RGB).
func (s *Surface) SetImage(img image.Image) {
	resized := fitImage(img, s.width, s.height)
	draw.Draw(s.pixels, s.pixels.Bounds(), resized, image.Point{}, draw.Src)
	draw.Draw(s.shadow, s.shadow.Bounds(), resized, image.Point{}, draw.Src)
}

// fitImage resizes img to w x h with nearest-neighbor interpolation
// if its size differs, using bild/transform so the method is shared
// with the clip source's canvas compositing.
func fitImage(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return transform.Resize(img, w, h, transform.NearestNeighbor)
}

// DrawText draws text at (x,y) in color c using a fixed bitmap font,
// writing to the real buffer only (same performance trade-off as
// SetPixel).
func (s *Surface) DrawText(x, y int, c colorx.Color, text string) {
	d := &font.Drawer{
		Dst:  s.pixels,
		Src:  image.NewUniform(c.NRGBA()),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// Capture returns an RGB image at surface resolution following the
// fallback order of §4.2:
//  1. shadow buffer if it has non-black content;
//  2. else backend readback, if available (also refreshes shadow);
//  3. else a black image.
func (s *Surface) Capture() *image.RGBA {
	if !isBlack(s.shadow) {
		return cloneRGBA(s.shadow)
	}
	if s.readPixel != nil {
		img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
		any := false
		for y := 0; y < s.height; y++ {
			for x := 0; x < s.width; x++ {
				if c, ok := s.readPixel(x, y); ok {
					img.Set(x, y, c.NRGBA())
					if c != (colorx.Color{}) {
						any = true
					}
				}
			}
		}
		if any {
			draw.Draw(s.shadow, s.shadow.Bounds(), img, image.Point{}, draw.Src)
		}
		return img
	}
	return image.NewRGBA(image.Rect(0, 0, s.width, s.height))
}

// Snapshot returns the real pixel buffer, as presented to the
// backend on swap. Callers must not mutate the returned image.
func (s *Surface) Snapshot() *image.RGBA {
	return s.pixels
}

func isBlack(img *image.RGBA) bool {
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			return false
		}
	}
	return true
}

func cloneRGBA(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}
