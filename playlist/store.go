// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package playlist

import (
	"sync"

	"github.com/cogentcore/ledpanel/internal/jsonstore"
)

// Store persists the named playlists of §6 (data/playlists.json).
type Store struct {
	path string

	mu        sync.RWMutex
	playlists map[string]Playlist
}

// NewStore loads playlists from path, starting empty if the file
// does not yet exist.
func NewStore(path string) (*Store, error) {
	loaded, err := jsonstore.LoadMerged(path, map[string]Playlist{})
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = map[string]Playlist{}
	}
	return &Store{path: path, playlists: loaded}, nil
}

// Get returns the playlist with the given id.
func (s *Store) Get(id string) (Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.playlists[id]
	return p, ok
}

// Save creates or updates a playlist and persists the store.
func (s *Store) Save(p Playlist) error {
	s.mu.Lock()
	s.playlists[p.ID] = p
	snapshot := s.cloneLocked()
	s.mu.Unlock()
	return jsonstore.Save(s.path, snapshot)
}

// Delete removes a playlist and persists the store.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	delete(s.playlists, id)
	snapshot := s.cloneLocked()
	s.mu.Unlock()
	return jsonstore.Save(s.path, snapshot)
}

// RenameAsset rewrites every PlaylistItem referencing oldFilename to
// reference newFilename instead, across every playlist, and persists
// the result. Used by the asset store's rename cascade (§4.8/§8).
func (s *Store) RenameAsset(oldFilename, newFilename string) error {
	s.mu.Lock()
	changed := false
	for id, p := range s.playlists {
		for i, item := range p.Items {
			if item.Filename == oldFilename {
				p.Items[i].Filename = newFilename
				changed = true
			}
		}
		s.playlists[id] = p
	}
	if !changed {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.cloneLocked()
	s.mu.Unlock()
	return jsonstore.Save(s.path, snapshot)
}

func (s *Store) cloneLocked() map[string]Playlist {
	out := make(map[string]Playlist, len(s.playlists))
	for k, v := range s.playlists {
		items := make([]Item, len(v.Items))
		copy(items, v.Items)
		v.Items = items
		out[k] = v
	}
	return out
}
