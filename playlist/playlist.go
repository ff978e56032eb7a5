// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package playlist implements the playlist scene of §4.5: a scene
// that hosts a sequence of child scenes with per-item duration,
// looping indefinitely. Per §9's design note, the playlist is itself
// just a Scene — the engine never special-cases it.
package playlist

import (
	"log/slog"
	"time"

	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/scene"
	"github.com/cogentcore/ledpanel/surface"
)

// ItemKind distinguishes a script scene from a GIF clip.
type ItemKind string

const (
	KindScript ItemKind = "script"
	KindClip   ItemKind = "clip"
)

// Item is one entry of a Playlist, matching the persisted
// PlaylistItem shape of §3/§6.
type Item struct {
	Kind     ItemKind `json:"kind"`
	Filename string   `json:"filename"`
	Duration float64  `json:"duration"`
	Palette  string   `json:"palette,omitempty"`
}

// Playlist is the persisted shape of §3/§6, minus the runtime scene
// it produces when activated (see New).
type Playlist struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Items           []Item  `json:"items"`
	DefaultPalette  string  `json:"default_palette,omitempty"`
	DefaultDuration float64 `json:"default_duration,omitempty"`
}

// fallbackDuration is used when an item fails to load, so the
// playlist retries soon rather than hanging on a black screen (§4.5
// step 2).
const fallbackDuration = 1 * time.Second

// Loader resolves a playlist item to a fresh scene instance. It is
// satisfied by the script and clip sources of scenesrc; kept as a
// pair of function values here (rather than importing scenesrc
// directly) to avoid pulling yaegi into every caller of playlist.
type Loader struct {
	LoadScript func(filename string) (scene.Scene, error)
	LoadClip   func(filename string) (scene.Scene, error)
}

func (l Loader) load(item Item) (scene.Scene, error) {
	switch item.Kind {
	case KindClip:
		if l.LoadClip == nil {
			return nil, errs.ErrSceneNotFound
		}
		return l.LoadClip(item.Filename)
	default:
		if l.LoadScript == nil {
			return nil, errs.ErrSceneNotFound
		}
		return l.LoadScript(item.Filename)
	}
}

// Scene is the runtime playlist scene (§4.5).
type Scene struct {
	scene.Base

	items  []Item
	loader Loader
	state  scene.StateView

	currentIndex    int
	currentChild    scene.Scene
	timeInScene     time.Duration
	currentDuration time.Duration
}

// New constructs a playlist scene over items, resolving scenes via
// loader. On construction it calls Advance once (§4.5), so the first
// item is already loaded by the time Enter is called.
func New(items []Item, loader Loader) *Scene {
	s := &Scene{items: items, loader: loader, currentIndex: -1}
	s.Advance()
	return s
}

// Enter stores the state view so Advance (called again from Update)
// can pass it to newly-installed children.
func (s *Scene) Enter(state scene.StateView) {
	s.state = state
	if s.currentChild != nil {
		if err := errs.ContainVoid(func() { s.currentChild.Enter(state) }); err != nil {
			slog.Error("playlist: child enter failed", "error", err)
		}
	}
}

// Advance installs the next item in sequence, wrapping modulo the
// item count, following the five steps of §4.5.
func (s *Scene) Advance() {
	if len(s.items) == 0 {
		s.currentChild = nil
		return
	}
	s.currentIndex = (s.currentIndex + 1) % len(s.items)
	item := s.items[s.currentIndex]

	child, err := s.loader.load(item)
	if err != nil {
		slog.Error("playlist: failed to load item", "filename", item.Filename, "kind", item.Kind, "error", err)
		s.currentChild = nil
		s.currentDuration = fallbackDuration
		s.timeInScene = 0
		return
	}

	if s.currentChild != nil {
		if exitErr := errs.ContainVoid(s.currentChild.Exit); exitErr != nil {
			slog.Error("playlist: child exit failed", "error", exitErr)
		}
	}
	s.currentChild = child
	if s.state != nil {
		if enterErr := errs.ContainVoid(func() { s.currentChild.Enter(s.state) }); enterErr != nil {
			slog.Error("playlist: child enter failed", "error", enterErr)
		}
	}

	s.timeInScene = 0
	dur := item.Duration
	if dur <= 0 {
		dur = fallbackDuration.Seconds()
	}
	s.currentDuration = time.Duration(dur * float64(time.Second))
}

// Update increments the item timer, advancing to the next item once
// it elapses, then forwards dt to the current child.
func (s *Scene) Update(dt float64) {
	s.timeInScene += time.Duration(dt * float64(time.Second))
	if s.timeInScene >= s.currentDuration {
		s.Advance()
	}
	if s.currentChild == nil {
		return
	}
	if err := errs.Contain(func() error {
		s.currentChild.Update(dt)
		return nil
	}); err != nil {
		slog.Error("playlist: child update failed", "error", err)
	}
}

// Draw forwards to the current child, if any.
func (s *Scene) Draw(surf *surface.Surface) {
	if s.currentChild == nil {
		return
	}
	if err := errs.Contain(func() error {
		s.currentChild.Draw(surf)
		return nil
	}); err != nil {
		slog.Error("playlist: child draw failed", "error", err)
	}
}

// Exit tears down the currently playing child.
func (s *Scene) Exit() {
	if s.currentChild != nil {
		if err := errs.ContainVoid(s.currentChild.Exit); err != nil {
			slog.Error("playlist: child exit failed", "error", err)
		}
	}
}

// CurrentChild exposes the currently playing child scene for status
// queries (§9: "a small capability... rather than type introspection").
func (s *Scene) CurrentChild() scene.Scene {
	return s.currentChild
}
