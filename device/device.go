// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package device implements the abstract double-buffered RGB matrix
// panel described in §4.1 of the specification: a fixed-size pixel
// surface with a back buffer, a software or hardware brightness
// knob, and a VSync-gated swap.
package device

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/cogentcore/ledpanel/colorx"
	"github.com/cogentcore/ledpanel/surface"
)

// Backend is the hardware (or emulated) panel a Device drives. A
// real implementation talks to GPIO/SPI; the emulated backend used
// by tests and by headless deployments keeps the back buffer in
// memory and fakes VSync with a frame-rate sleep.
//
// Backends MAY support per-pixel readback (ReadPixel) and/or a
// hardware brightness knob (SetHardwareBrightness); both are
// optional, as documented in §4.1 "Failure".
type Backend interface {
	// Dimensions reports the fixed panel size.
	Dimensions() (width, height int)
	// WaitVSync blocks until the next vertical sync event.
	WaitVSync()
	// Present makes buf the visible frame. Ownership of buf is
	// transferred to the backend; the caller must not reuse it.
	Present(buf *image.RGBA)
	// SetHardwareBrightness attempts to apply brightness (0-100) in
	// hardware. It returns false if the backend has no such knob, in
	// which case the Device falls back to software dimming.
	SetHardwareBrightness(brightness int) bool
	// ReadPixel optionally supports reading back the currently
	// presented frame. ok is false if the backend cannot do this.
	ReadPixel(x, y int) (c colorx.Color, ok bool)
}

// Device is the opaque, double-buffered pixel surface bound to a
// physical or emulated panel (§4.1).
type Device struct {
	backend Backend
	width   int
	height  int

	mu         sync.Mutex
	brightness int
	back       *image.RGBA
	surf       *surface.Surface
}

// New constructs a Device bound to backend with the given initial
// brightness (clamped to [0,100]). A nil backend is a startup error.
func New(backend Backend, brightness int) (*Device, error) {
	if backend == nil {
		return nil, fmt.Errorf("device.New: backend must not be nil")
	}
	w, h := backend.Dimensions()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("device.New: backend reports invalid dimensions %dx%d", w, h)
	}
	d := &Device{
		backend: backend,
		width:   w,
		height:  h,
		back:    image.NewRGBA(image.Rect(0, 0, w, h)),
	}
	d.surf = surface.New(w, h, d.readBack)
	d.SetBrightness(brightness)
	return d, nil
}

// Width returns the immutable panel width.
func (d *Device) Width() int { return d.width }

// Height returns the immutable panel height.
func (d *Device) Height() int { return d.height }

// Surface returns the Surface drawn into for the next frame.
func (d *Device) Surface() *surface.Surface {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surf
}

// SetBrightness clamps b to [0,100] and applies it. If the backend
// exposes a hardware knob it is used; otherwise the value is recorded
// for software dimming via ApplyBrightness. Idempotent.
func (d *Device) SetBrightness(b int) {
	b = clampInt(b, 0, 100)
	d.mu.Lock()
	d.brightness = b
	d.mu.Unlock()
	if !d.backend.SetHardwareBrightness(b) {
		slog.Debug("backend has no hardware brightness knob, using software dimming", "brightness", b)
	}
}

// Brightness returns the current brightness (0-100).
func (d *Device) Brightness() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness
}

// ApplyBrightness scales c by the current software brightness level.
// It is a helper only: Swap presents the surface's pixels unscaled,
// and the Emulated backend does not call it.
func (d *Device) ApplyBrightness(c colorx.Color) colorx.Color {
	return c.Scale(float64(d.Brightness()) / 100.0)
}

// Swap blocks until the panel's vertical-sync event, presents the
// current surface's backing buffer, and returns a fresh, cleared
// Surface referring to the new back buffer.
func (d *Device) Swap() *surface.Surface {
	d.backend.WaitVSync()

	d.mu.Lock()
	current := d.surf
	d.mu.Unlock()

	presented := current.Snapshot()
	next := surface.New(d.width, d.height, d.readBack)

	d.mu.Lock()
	d.back = presented
	d.surf = next
	d.mu.Unlock()

	d.backend.Present(presented)
	return next
}

// Capture returns an RGB image of the current back buffer, following
// the fallback order documented in §4.2: shadow buffer if non-black,
// else backend readback, else black.
func (d *Device) Capture() *image.RGBA {
	d.mu.Lock()
	surf := d.surf
	d.mu.Unlock()
	return surf.Capture()
}

func (d *Device) readBack(x, y int) (colorx.Color, bool) {
	return d.backend.ReadPixel(x, y)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
