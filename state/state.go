// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package state implements the thread-safe settings, active-scene
// handle, and external key/value store of §4.6, persisted at
// data/config.json.
package state

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/internal/jsonstore"
	"github.com/cogentcore/ledpanel/palettestore"
	"github.com/cogentcore/ledpanel/scene"
)

// Settings is the process-wide, persisted configuration of §3.
type Settings struct {
	Brightness      int     `json:"brightness"`
	Speed           float64 `json:"speed"`
	SelectedPalette string  `json:"selected_palette"`
}

// DefaultSettings returns the documented defaults, used both as the
// initial value and to fill in keys missing from an on-disk file.
func DefaultSettings() Settings {
	return Settings{Brightness: 100, Speed: 1.0, SelectedPalette: "aurora"}
}

// State is the synchronization boundary between the request threads
// that mutate settings/active scene and the engine thread that reads
// them at frame boundaries.
type State struct {
	path     string
	palettes *palettestore.Store

	mu       sync.RWMutex
	settings Settings
	scene    scene.Scene
	data     map[string]any

	// execMu serializes scene execution (WithActiveScene) against scene
	// swaps (SetScene), so the outgoing scene's Exit happens-before the
	// incoming scene's Enter, and both happen-before any Update/Draw
	// the engine runs against the new handle (§5).
	execMu sync.Mutex
}

// New loads settings from path (filling missing keys from defaults)
// and returns a State bound to the given palette store for
// PaletteColors resolution.
func New(path string, palettes *palettestore.Store) (*State, error) {
	settings, err := jsonstore.LoadMerged(path, DefaultSettings())
	if err != nil {
		return nil, err
	}
	return &State{
		path:     path,
		palettes: palettes,
		settings: settings,
		data:     make(map[string]any),
	}, nil
}

// Settings returns a snapshot (copy) of the current settings. This is
// a lock-free-for-the-caller read: the lock is only held to copy the
// small value out.
func (s *State) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSetting validates and applies a single setting by name,
// persisting synchronously on success. Unknown keys and out-of-range
// numeric values (clamped, not rejected) are handled per §4.6/§9.
func (s *State) UpdateSetting(key string, value any) error {
	s.mu.Lock()
	switch key {
	case "brightness":
		v, err := asInt(value)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.settings.Brightness = clampInt(v, 0, 100)
	case "speed":
		v, err := asFloat(value)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.settings.Speed = clampFloat(v, 0.1, 2.0)
	case "selected_palette":
		v, ok := value.(string)
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("state: selected_palette must be a string")
		}
		s.settings.SelectedPalette = v
	default:
		s.mu.Unlock()
		return fmt.Errorf("state: %q: %w", key, errs.ErrUnknownSetting)
	}
	snapshot := s.settings
	s.mu.Unlock()

	if err := jsonstore.Save(s.path, snapshot); err != nil {
		return fmt.Errorf("state: persisting settings: %w", err)
	}
	return nil
}

// SetScene installs new as the active scene, calling Exit on the
// outgoing scene (if any) and Enter on the incoming one. Panics or
// errors in either lifecycle hook are contained and logged;
// installation completes regardless (§4.6).
//
// execMu is held for the whole swap, so this cannot interleave with an
// in-flight WithActiveScene call: a swap issued mid-tick blocks until
// the engine's current Update/Draw finishes, and outgoing.Exit always
// happens-before next.Enter, which always happens-before the next
// WithActiveScene call's Update/Draw on the new handle (§5).
func (s *State) SetScene(next scene.Scene) {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	s.mu.Lock()
	outgoing := s.scene
	s.scene = next
	s.mu.Unlock()

	if outgoing != nil {
		if err := errs.ContainVoid(outgoing.Exit); err != nil {
			slog.Error("scene exit failed", "error", err)
		}
	}
	if next != nil {
		if err := errs.ContainVoid(func() { next.Enter(s) }); err != nil {
			slog.Error("scene enter failed", "error", err)
		}
	}
}

// ActiveScene returns the current scene handle, or nil if none is set.
func (s *State) ActiveScene() scene.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene
}

// WithActiveScene runs fn against the current active scene handle
// while holding execMu, the same lock SetScene takes for the whole of
// its Exit/Enter sequence. This is the only safe way for the engine to
// execute Update/Draw against the active scene: it guarantees no
// SetScene call can run outgoing.Exit concurrently with fn, and that a
// swap issued while fn is running is observed only on the next call
// (never mid-tick). ran is false, and fn is not called, if there is no
// active scene.
func (s *State) WithActiveScene(fn func(scene.Scene)) (ran bool) {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	s.mu.RLock()
	active := s.scene
	s.mu.RUnlock()

	if active == nil {
		return false
	}
	fn(active)
	return true
}

// ActiveSceneFilename returns the filename tag of the active scene
// and true, or ("", false) if there is no active scene or it carries
// no tag. Used by the asset store's deferred thumbnail capture
// (§4.8) to confirm the scene it was scheduled for is still active.
func (s *State) ActiveSceneFilename() (string, bool) {
	s.mu.RLock()
	active := s.scene
	s.mu.RUnlock()
	if active == nil {
		return "", false
	}
	tagged, ok := active.(scene.Tagged)
	if !ok {
		return "", false
	}
	name := tagged.Filename()
	return name, name != ""
}

// SetData stores a value in the opaque external integration store.
func (s *State) SetData(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Data returns the value stored under key, or nil. Implements
// scene.StateView.
func (s *State) Data(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

// DataSnapshot returns a copy of the entire external data store.
func (s *State) DataSnapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// PaletteColors resolves the selected palette and returns its decoded
// colors, or nil if none is selected or it cannot be found. Implements
// scene.StateView.
func (s *State) PaletteColors() []scene.Color {
	s.mu.RLock()
	id := s.settings.SelectedPalette
	s.mu.RUnlock()

	if id == "" || s.palettes == nil {
		return nil
	}
	p, ok := s.palettes.Get(id)
	if !ok {
		return nil
	}
	decoded := palettestore.Colors(p)
	out := make([]scene.Color, len(decoded))
	for i, c := range decoded {
		out[i] = scene.Color{R: c.R, G: c.G, B: c.B}
	}
	return out
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("state: expected a number, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("state: expected a number, got %T", v)
	}
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

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
