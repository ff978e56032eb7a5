// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenesrc

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/anthonynsimon/bild/transform"

	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/scene"
	"github.com/cogentcore/ledpanel/surface"
)

// minFrameDuration is the floor a zero-duration GIF frame is
// rewritten to (§4.4).
const minFrameDuration = 100 * time.Millisecond

// ClipSource is a directory of GIF files, each instantiated into a
// clipScene that plays its decoded frames on a local clock.
type ClipSource struct {
	dir           string
	width, height int
}

// NewClipSource returns a ClipSource rooted at dir for a device of
// the given resolution, creating the directory if necessary.
func NewClipSource(dir string, width, height int) (*ClipSource, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scenesrc: creating %s: %w", dir, err)
	}
	return &ClipSource{dir: dir, width: width, height: height}, nil
}

// List enumerates the GIF filenames available in the directory.
func (c *ClipSource) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("scenesrc: listing %s: %w", c.dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".gif" {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Instantiate reads filename, decodes every frame, composites each
// onto a persistent canvas via its alpha mask (the GIF disposal
// simplification of §4.4), and resizes the composited result to
// device resolution with Lanczos interpolation.
func (c *ClipSource) Instantiate(filename string) (scene.Scene, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}
	path := filepath.Join(c.dir, filename)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scenesrc: %s: %w", filename, errs.ErrSceneNotFound)
		}
		return nil, fmt.Errorf("scenesrc: opening %s: %w", filename, err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("scenesrc: decoding %s: %w: %v", filename, errs.ErrSceneNotFound, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("scenesrc: %s has no frames: %w", filename, errs.ErrSceneNotFound)
	}

	bounds := g.Image[0].Bounds()
	canvas := image.NewRGBA(bounds)

	frames := make([]*image.RGBA, 0, len(g.Image))
	durations := make([]time.Duration, 0, len(g.Image))
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		snap := image.NewRGBA(bounds)
		draw.Draw(snap, bounds, canvas, bounds.Min, draw.Src)
		resized := transform.Resize(snap, c.width, c.height, transform.Lanczos)
		resizedRGBA, ok := resized.(*image.RGBA)
		if !ok {
			resizedRGBA = toRGBA(resized)
		}
		frames = append(frames, resizedRGBA)

		d := time.Duration(g.Delay[i]) * 10 * time.Millisecond
		if d <= 0 {
			d = minFrameDuration
		}
		durations = append(durations, d)
	}

	cs := &clipScene{frames: frames, durations: durations}
	cs.SetFilename(filename)
	return cs, nil
}

func toRGBA(img image.Image) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// clipScene plays a fixed sequence of frames on a local clock,
// wrapping modulo total duration, as described in §4.4.
type clipScene struct {
	scene.Base

	frames    []*image.RGBA
	durations []time.Duration
	total     time.Duration

	cursorIdx int
	cursorT   time.Duration
}

func (c *clipScene) Enter(scene.StateView) {
	if c.total == 0 {
		for _, d := range c.durations {
			c.total += d
		}
	}
}

// Update advances the playback cursor by dt (seconds), wrapping
// modulo the clip's total duration.
func (c *clipScene) Update(dt float64) {
	if len(c.frames) == 0 || c.total <= 0 {
		return
	}
	c.cursorT += time.Duration(dt * float64(time.Second))
	c.cursorT %= c.total
	if c.cursorT < 0 {
		c.cursorT += c.total
	}

	acc := time.Duration(0)
	for i, d := range c.durations {
		acc += d
		if c.cursorT < acc {
			c.cursorIdx = i
			return
		}
	}
	c.cursorIdx = len(c.frames) - 1
}

func (c *clipScene) Draw(surf *surface.Surface) {
	if len(c.frames) == 0 {
		return
	}
	surf.SetImage(c.frames[c.cursorIdx])
}
