// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/cogentcore/ledpanel/colorx"
)

// Emulated is a software Backend with no real hardware dependency: it
// fakes VSync with a sleep timed to targetFPS and supports full
// pixel readback, standing in for the RGBMatrixEmulator fallback path
// the original implementation used when no physical panel was wired
// up (§4.1 "A backend absence at construction is a startup error" —
// Emulated exists so tests and headless runs never hit that error).
type Emulated struct {
	width, height int
	targetFPS     int

	mu        sync.Mutex
	presented *image.RGBA
	lastVSync time.Time
}

// NewEmulated constructs a software-only backend of the given size.
func NewEmulated(width, height, targetFPS int) *Emulated {
	if targetFPS <= 0 {
		targetFPS = 60
	}
	return &Emulated{
		width:     width,
		height:    height,
		targetFPS: targetFPS,
		presented: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (e *Emulated) Dimensions() (int, int) { return e.width, e.height }

func (e *Emulated) WaitVSync() {
	frameDuration := time.Second / time.Duration(e.targetFPS)
	e.mu.Lock()
	elapsed := time.Since(e.lastVSync)
	e.mu.Unlock()
	if elapsed < frameDuration {
		time.Sleep(frameDuration - elapsed)
	}
	e.mu.Lock()
	e.lastVSync = time.Now()
	e.mu.Unlock()
}

func (e *Emulated) Present(buf *image.RGBA) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.presented = buf
}

// SetHardwareBrightness always reports false: the emulator has no
// hardware knob, so the Device falls back to software dimming.
func (e *Emulated) SetHardwareBrightness(b int) bool {
	slog.Debug("emulated backend ignores hardware brightness request", "brightness", b)
	return false
}

func (e *Emulated) ReadPixel(x, y int) (colorx.Color, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.presented == nil || !(image.Point{x, y}.In(e.presented.Bounds())) {
		return colorx.Color{}, true
	}
	r, g, b, _ := e.presented.At(x, y).RGBA()
	return colorx.Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}, true
}
