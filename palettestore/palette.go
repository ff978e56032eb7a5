// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package palettestore implements the built-in and user palette
// namespaces of §3/§4 and their persistence at data/palettes.json.
package palettestore

import (
	"fmt"
	"sync"

	"github.com/cogentcore/ledpanel/colorx"
	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/internal/jsonstore"
)

// Palette is a named, ordered sequence of colors.
type Palette struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// builtins mirrors the eight hard-coded palettes of the original
// implementation's palette_manager.py, read-only and never persisted.
var builtins = map[string]Palette{
	"aurora": {ID: "aurora", Name: "Aurora", Colors: []string{"#172347", "#025385", "#0EF3C5", "#04E2B7", "#038298", "#015268"}},
	"sunset": {ID: "sunset", Name: "Sunset", Colors: []string{"#FF6B6B", "#FF8E53", "#FFA07A", "#FFB347", "#FFD700", "#FF6347"}},
	"ocean":  {ID: "ocean", Name: "Ocean", Colors: []string{"#001F3F", "#0074D9", "#39CCCC", "#7FDBFF", "#B3E5FC", "#E0F7FA"}},
	"forest": {ID: "forest", Name: "Forest", Colors: []string{"#1B4332", "#2D6A4F", "#40916C", "#52B788", "#74C69D", "#95D5B2"}},
	"neon":   {ID: "neon", Name: "Neon", Colors: []string{"#FF00FF", "#00FFFF", "#FF00AA", "#AA00FF", "#00FFAA", "#FFAA00"}},
	"fire":   {ID: "fire", Name: "Fire", Colors: []string{"#8B0000", "#DC143C", "#FF4500", "#FF6347", "#FF8C00", "#FFA500"}},
	"ice":    {ID: "ice", Name: "Ice", Colors: []string{"#000080", "#0000CD", "#4169E1", "#87CEEB", "#B0E0E6", "#E0F6FF"}},
	"autumn": {ID: "autumn", Name: "Autumn", Colors: []string{"#8B4513", "#A0522D", "#CD853F", "#DEB887", "#F4A460", "#FFD700"}},
}

// Store holds the mutable user palette namespace, persisted at path.
type Store struct {
	path string

	mu   sync.RWMutex
	user map[string]Palette
}

// NewStore loads the user palette namespace from path, starting empty
// if the file does not yet exist.
func NewStore(path string) (*Store, error) {
	user, err := jsonstore.LoadMerged(path, map[string]Palette{})
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = map[string]Palette{}
	}
	return &Store{path: path, user: user}, nil
}

// Builtins returns the fixed set of built-in palettes.
func Builtins() map[string]Palette {
	out := make(map[string]Palette, len(builtins))
	for k, v := range builtins {
		out[k] = v
	}
	return out
}

// Get looks up a palette, checking built-ins first, then user palettes.
func (s *Store) Get(id string) (Palette, bool) {
	if p, ok := builtins[id]; ok {
		return p, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.user[id]
	return p, ok
}

// Save creates or updates a user palette. It is rejected if id names
// a built-in palette.
func (s *Store) Save(id string, p Palette) error {
	if _, ok := builtins[id]; ok {
		return fmt.Errorf("palettestore: %q: %w", id, errs.ErrPaletteBuiltin)
	}
	p.ID = id
	if p.Name == "" {
		p.Name = id
	}
	for _, hex := range p.Colors {
		if _, err := colorx.FromHex(hex); err != nil {
			return fmt.Errorf("palettestore: invalid color %q: %w", hex, err)
		}
	}
	s.mu.Lock()
	s.user[id] = p
	snapshot := s.cloneUserLocked()
	s.mu.Unlock()
	return jsonstore.Save(s.path, snapshot)
}

// Delete removes a user palette. Deleting a built-in is forbidden.
func (s *Store) Delete(id string) error {
	if _, ok := builtins[id]; ok {
		return fmt.Errorf("palettestore: %q: %w", id, errs.ErrPaletteBuiltin)
	}
	s.mu.Lock()
	if _, ok := s.user[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("palettestore: %q: %w", id, errs.ErrPaletteNotFound)
	}
	delete(s.user, id)
	snapshot := s.cloneUserLocked()
	s.mu.Unlock()
	return jsonstore.Save(s.path, snapshot)
}

// Colors decodes a palette's hex strings into colorx.Color values,
// skipping (and logging) any malformed entry.
func Colors(p Palette) []colorx.Color {
	out := make([]colorx.Color, 0, len(p.Colors))
	for _, hex := range p.Colors {
		c, err := colorx.FromHex(hex)
		if err != nil {
			errs.Log(fmt.Errorf("palettestore: palette %q: %w", p.ID, err))
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Store) cloneUserLocked() map[string]Palette {
	out := make(map[string]Palette, len(s.user))
	for k, v := range s.user {
		out[k] = v
	}
	return out
}
