// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine implements the fixed-rate render loop of §4.7: it
// advances the active scene, composes the next frame, swaps it to
// the device's double buffer, captures a throttled preview image,
// and contains scene and device faults so a single bad scene never
// stops the loop.
package engine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/transform"

	"github.com/cogentcore/ledpanel/device"
	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/scene"
	"github.com/cogentcore/ledpanel/state"
	"github.com/cogentcore/ledpanel/surface"
)

// errDeviceSwapFault marks an error as having originated from
// Device.Swap rather than from the active scene, so the engine can
// apply the longer recovery pause §4.7 reserves for persistent
// device-level failures.
var errDeviceSwapFault = errors.New("device swap fault")

// Defaults, named for the constants of §4.7.
const (
	TargetFPS         = 60
	FrameDuration     = time.Second / TargetFPS
	PreviewInterval   = 200 * time.Millisecond
	MaxConsecErrors   = 10
	FPSWindow         = 2 * time.Second
	FPSWarnThreshold  = 40.0
	FPSLogThrottle    = 5 * time.Second
	DTCap             = 1 * time.Second
	previewUpscale    = 4
	faultRecoverSleep = 100 * time.Millisecond
	deviceFaultPause  = 1 * time.Second
)

// Engine drives the render loop. Exactly one goroutine executes Run
// (or the goroutine started by RunThreaded); it exclusively owns the
// Device and its Surface for the engine's lifetime, per §5.
type Engine struct {
	dev   *device.Device
	state *state.State

	targetFPS       int
	frameDuration   time.Duration
	maxConsecErrors int

	running atomicBool
	stopCh  chan struct{}

	previewMu       sync.Mutex
	latestPreview   []byte
	lastCaptureTime time.Time

	fpsMu          sync.Mutex
	frameTimes     []time.Time
	currentFPS     float64
	lastFPSWarning time.Time
}

// New constructs an Engine bound to dev and state, using the
// documented defaults.
func New(dev *device.Device, st *state.State) *Engine {
	return &Engine{
		dev:             dev,
		state:           st,
		targetFPS:       TargetFPS,
		frameDuration:   FrameDuration,
		maxConsecErrors: MaxConsecErrors,
		stopCh:          make(chan struct{}),
	}
}

// Run drives the render loop in the calling goroutine until Stop is
// called. It implements the per-tick algorithm of §4.7.
func (e *Engine) Run() {
	e.running.set(true)
	defer e.running.set(false)
	slog.Info("engine started")

	last := time.Now()
	consecErrors := 0

	for {
		select {
		case <-e.stopCh:
			slog.Info("engine stopping")
			return
		default:
		}

		tickStart := time.Now()
		dt := tickStart.Sub(last)
		if dt > DTCap {
			dt = DTCap
		}
		last = tickStart

		settings, ok := e.snapshotState()
		if !ok {
			time.Sleep(faultRecoverSleep)
			continue
		}

		speed := clampFloat(settings.Speed, 0.1, 2.0)
		scaledDT := dt.Seconds() * speed

		// WithActiveScene holds state's execMu for the duration of
		// Update/Draw, so a concurrent SetScene cannot run the
		// outgoing scene's Exit until this tick's work on it is done
		// (§5's happens-before ordering).
		var err error
		ran := e.state.WithActiveScene(func(active scene.Scene) {
			err = errs.Contain(func() error {
				active.Update(scaledDT)
				surf := e.dev.Surface()
				surf.Clear()
				active.Draw(surf)
				e.maybeCapturePreview(surf)
				return nil
			})
		})
		if !ran {
			e.dev.Surface().Clear()
			e.dev.Swap()
			time.Sleep(faultRecoverSleep)
			e.recordTick(tickStart)
			continue
		}

		if err == nil {
			if swapErr := errs.Contain(func() error { e.dev.Swap(); return nil }); swapErr != nil {
				err = fmt.Errorf("%w: %v", errDeviceSwapFault, swapErr)
			}
		}

		if err != nil {
			consecErrors++
			slog.Error("render loop fault", "attempt", consecErrors, "max", e.maxConsecErrors, "error", err)
			pause := faultRecoverSleep
			if consecErrors >= e.maxConsecErrors {
				slog.Error("too many consecutive errors, clearing active scene", "count", consecErrors)
				e.state.SetScene(nil)
				consecErrors = 0
				if errors.Is(err, errDeviceSwapFault) {
					pause = deviceFaultPause
				}
			}
			time.Sleep(pause)
		} else {
			consecErrors = 0
		}

		elapsed := time.Since(tickStart)
		if elapsed < e.frameDuration {
			time.Sleep(e.frameDuration - elapsed)
		}
		e.recordTick(tickStart)
	}
}

// RunThreaded starts Run in a new goroutine and returns immediately.
func (e *Engine) RunThreaded() {
	go e.Run()
}

// Stop signals the loop to exit before its next tick. It does not
// block until the loop has actually exited.
func (e *Engine) Stop() {
	select {
	case <-e.stopCh:
		// already stopped
	default:
		close(e.stopCh)
	}
}

// Running reports whether the loop is currently executing.
func (e *Engine) Running() bool {
	return e.running.get()
}

func (e *Engine) snapshotState() (st state.Settings, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("state read fault", "error", r)
			ok = false
		}
	}()
	return e.state.Settings(), true
}

// GetCurrentFPS returns the most recently computed FPS.
func (e *Engine) GetCurrentFPS() float64 {
	e.fpsMu.Lock()
	defer e.fpsMu.Unlock()
	return e.currentFPS
}

// GetPreviewFrame returns the latest captured preview PNG, or nil if
// no frame has been captured yet.
func (e *Engine) GetPreviewFrame() []byte {
	e.previewMu.Lock()
	defer e.previewMu.Unlock()
	return e.latestPreview
}

// maybeCapturePreview captures and PNG-encodes the current surface,
// upscaled 4x with nearest-neighbor, if PreviewInterval has elapsed
// since the last capture. Capture failures are logged at debug level
// and never affect rendering (§4.7 "best-effort").
func (e *Engine) maybeCapturePreview(surf *surface.Surface) {
	now := time.Now()
	e.previewMu.Lock()
	due := now.Sub(e.lastCaptureTime) >= PreviewInterval
	e.previewMu.Unlock()
	if !due {
		return
	}

	err := errs.Contain(func() error {
		img := surf.Capture()
		upscaled := upscaleNearest(img, previewUpscale)
		var buf bytes.Buffer
		if err := png.Encode(&buf, upscaled); err != nil {
			return err
		}
		e.previewMu.Lock()
		e.latestPreview = buf.Bytes()
		e.lastCaptureTime = now
		e.previewMu.Unlock()
		return nil
	})
	if err != nil {
		slog.Debug("preview capture failed", "error", err)
	}
}

func upscaleNearest(img image.Image, factor int) image.Image {
	b := img.Bounds()
	return transform.Resize(img, b.Dx()*factor, b.Dy()*factor, transform.NearestNeighbor)
}

// recordTick appends now to the FPS ring, drops samples older than
// FPSWindow, recomputes currentFPS, and throttles the low-FPS warning
// per §4.7 step 8.
func (e *Engine) recordTick(now time.Time) {
	e.fpsMu.Lock()
	defer e.fpsMu.Unlock()

	e.frameTimes = append(e.frameTimes, now)
	cutoff := now.Add(-FPSWindow)
	i := 0
	for i < len(e.frameTimes) && e.frameTimes[i].Before(cutoff) {
		i++
	}
	e.frameTimes = e.frameTimes[i:]

	if len(e.frameTimes) <= 1 {
		return
	}
	span := e.frameTimes[len(e.frameTimes)-1].Sub(e.frameTimes[0])
	if span <= 0 {
		return
	}
	e.currentFPS = float64(len(e.frameTimes)-1) / span.Seconds()

	if e.currentFPS < FPSWarnThreshold && now.Sub(e.lastFPSWarning) >= FPSLogThrottle {
		slog.Warn("low FPS detected", "fps", e.currentFPS, "target", e.targetFPS)
		e.lastFPSWarning = now
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type atomicBool struct {
	mu sync.Mutex
	v  bool
}

func (a *atomicBool) set(v bool) {
	a.mu.Lock()
	a.v = v
	a.mu.Unlock()
}

func (a *atomicBool) get() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}
