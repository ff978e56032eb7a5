// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assetstore

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"github.com/anthonynsimon/bild/transform"

	"github.com/cogentcore/ledpanel/internal/errs"
)

// thumbnailDelay is the T+15s deferral of §4.8's automatic thumbnail
// capture.
const thumbnailDelay = 15 * time.Second

// PreviewSource is the subset of *engine.Engine the scheduler needs:
// the latest captured preview PNG.
type PreviewSource interface {
	GetPreviewFrame() []byte
}

// ActiveSceneQuery is the subset of *state.State the scheduler needs
// to confirm the scene it was scheduled for is still active.
type ActiveSceneQuery interface {
	ActiveSceneFilename() (string, bool)
}

// Scheduler implements §4.8's "automatic thumbnail capture": when a
// script scene without a thumbnail is activated, a deferred task
// fires at T+15s and, only if the same scene is still active,
// downsamples the engine's current preview frame into a thumbnail.
// If the active scene changed in the meantime, it cancels silently.
//
// Design note §9: "Implement as a canceled-on-swap task rather than a
// global scheduler" — each call to Schedule starts its own timer
// goroutine scoped to one filename; there is no shared queue to drain
// or cancel explicitly, the liveness check at fire time does that.
type Scheduler struct {
	store   *Store
	preview PreviewSource
	state   ActiveSceneQuery
	width   int
	height  int
}

// NewScheduler constructs a Scheduler over store, reading live
// preview frames from preview and the active scene from state.
func NewScheduler(store *Store, preview PreviewSource, state ActiveSceneQuery, width, height int) *Scheduler {
	return &Scheduler{store: store, preview: preview, state: state, width: width, height: height}
}

// Schedule arranges for filename's thumbnail to be captured at
// T+15s if it still has none. It is a no-op if a thumbnail already
// exists. Call this when a script scene is activated (§4.8).
func (sch *Scheduler) Schedule(filename string) {
	if sch.store.Thumbnail(filename) != nil {
		return
	}
	time.AfterFunc(thumbnailDelay, func() {
		sch.fire(filename)
	})
}

func (sch *Scheduler) fire(filename string) {
	active, ok := sch.state.ActiveSceneFilename()
	if !ok || active != filename {
		slog.Debug("deferred thumbnail capture canceled: scene no longer active", "filename", filename)
		return
	}

	err := errs.Contain(func() error {
		data := sch.preview.GetPreviewFrame()
		if len(data) == 0 {
			return fmt.Errorf("no preview frame captured yet")
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decoding preview frame: %w", err)
		}
		downscaled := transform.Resize(img, sch.width, sch.height, transform.NearestNeighbor)
		var buf bytes.Buffer
		if err := png.Encode(&buf, downscaled); err != nil {
			return fmt.Errorf("encoding thumbnail: %w", err)
		}
		return sch.store.StoreThumbnail(filename, buf.Bytes())
	})
	if err != nil {
		slog.Debug("deferred thumbnail capture failed", "filename", filename, "error", err)
	}
}
