// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package colorx provides the RGB color type shared by the device,
// surface, and palette packages, along with hex string conversions.
package colorx

import (
	"fmt"
	"image/color"
	"strings"
)

// Color is an opaque 8-bit-per-channel RGB color, as used by the
// matrix panel (there is no alpha channel at the hardware level).
type Color struct {
	R, G, B uint8
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = 0xffff
	return
}

// NRGBA returns the color as a standard library color.NRGBA.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Hex returns the color as a "#RRGGBB" string.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// FromHex parses a "#RRGGBB" or "RRGGBB" string into a Color.
func FromHex(hex string) (Color, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("colorx.FromHex: could not process %q: want 6 hex digits", hex)
	}
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, fmt.Errorf("colorx.FromHex: could not process %q: %w", hex, err)
	}
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// Scale returns c with each channel multiplied by the given factor in
// [0,1], used for software brightness dimming.
func (c Color) Scale(factor float64) Color {
	return Color{
		R: scaleChan(c.R, factor),
		G: scaleChan(c.G, factor),
		B: scaleChan(c.B, factor),
	}
}

func scaleChan(v uint8, factor float64) uint8 {
	s := float64(v) * factor
	if s < 0 {
		return 0
	}
	if s > 255 {
		return 255
	}
	return uint8(s)
}
