// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assetstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/playlist"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	pl, err := playlist.NewStore(filepath.Join(root, "playlists.json"))
	require.NoError(t, err)
	s, err := New(filepath.Join(root, "scenes"), filepath.Join(root, "library.json"), 8, 8, pl)
	require.NoError(t, err)
	return s
}

func TestUploadRejectsPathTraversal(t *testing.T) {
	s := newStore(t)
	err := s.Upload("../evil.go", []byte("package main"))
	assert.ErrorIs(t, err, errs.ErrInvalidFilename)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	s := newStore(t)
	err := s.Upload("readme.txt", []byte("hello"))
	assert.ErrorIs(t, err, errs.ErrUnsupportedAsset)
}

func TestUploadRejectsOversize(t *testing.T) {
	s := newStore(t)
	s.maxSize = 4
	err := s.Upload("red.go", []byte("package main"))
	assert.ErrorIs(t, err, errs.ErrAssetTooLarge)
}

func TestUploadScriptInitializesMetadata(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Upload("fire_and_ice.go", []byte("package main")))

	entry, ok := s.Entry("fire_and_ice.go")
	require.True(t, ok)
	assert.Equal(t, "Fire And Ice", entry.Title)
	assert.Equal(t, "go", entry.Type)

	data, err := os.ReadFile(filepath.Join(s.scriptsDir, "fire_and_ice.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main", string(data))
}

func TestRenameCascadesToPlaylist(t *testing.T) {
	root := t.TempDir()
	pl, err := playlist.NewStore(filepath.Join(root, "playlists.json"))
	require.NoError(t, err)
	require.NoError(t, pl.Save(playlist.Playlist{
		ID:   "p1",
		Name: "P1",
		Items: []playlist.Item{
			{Kind: playlist.KindScript, Filename: "a.go", Duration: 1},
		},
	}))

	s, err := New(filepath.Join(root, "scenes"), filepath.Join(root, "library.json"), 8, 8, pl)
	require.NoError(t, err)
	require.NoError(t, s.Upload("a.go", []byte("package main")))

	require.NoError(t, s.Rename("a.go", "b.go"))

	_, err = os.Stat(filepath.Join(s.scriptsDir, "b.go"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(s.scriptsDir, "a.go"))
	assert.True(t, os.IsNotExist(err))

	_, ok := s.Entry("a.go")
	assert.False(t, ok)
	entry, ok := s.Entry("b.go")
	assert.True(t, ok)
	assert.Equal(t, "A", entry.Title)

	p, ok := pl.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "b.go", p.Items[0].Filename)
}

func TestRenameRejectsExtensionChange(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Upload("a.go", []byte("package main")))
	err := s.Rename("a.go", "a.gif")
	assert.ErrorIs(t, err, errs.ErrInvalidFilename)
}

func TestDeleteRemovesAssetAndMetadata(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Upload("a.go", []byte("package main")))
	require.NoError(t, s.Delete("a.go"))

	_, err := os.Stat(filepath.Join(s.scriptsDir, "a.go"))
	assert.True(t, os.IsNotExist(err))
	_, ok := s.Entry("a.go")
	assert.False(t, ok)
}

func TestThumbnailMissingReturnsNil(t *testing.T) {
	s := newStore(t)
	assert.Nil(t, s.Thumbnail("nope.go"))
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "Bouncing Ball", titleFromFilename("bouncing_ball.go"))
	assert.Equal(t, "Fire", titleFromFilename("fire.gif"))
}
