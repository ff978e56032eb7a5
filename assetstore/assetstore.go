// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package assetstore implements the scene-file lifecycle of §4.8:
// filename-keyed upload/rename/delete with cascading updates to
// thumbnails, library metadata (data/library.json), and any playlist
// referencing the renamed file.
package assetstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/transform"

	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/internal/jsonstore"
	"github.com/cogentcore/ledpanel/playlist"
)

// MaxUploadSize is the default cap on an uploaded asset's size (§4.8).
const MaxUploadSize = 10 * 1 << 20 // 10 MiB

// thumbnailScale is the factor applied to device resolution when
// extracting a GIF's first-frame thumbnail (§4.8).
const thumbnailScale = 2

// Entry is the persisted metadata of one asset, keyed by filename in
// data/library.json (§6). Type and any integration-specific fields
// are free-form, so Extra captures whatever else was present.
type Entry struct {
	Title string         `json:"title"`
	Type  string         `json:"type,omitempty"`
	Extra map[string]any `json:"-"`
}

// MarshalJSON flattens Extra alongside Title/Type so the on-disk
// shape stays a single free-form object per §3 ("…free-form").
func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["title"] = e.Title
	if e.Type != "" {
		out["type"] = e.Type
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Extra = raw
	if t, ok := raw["title"].(string); ok {
		e.Title = t
		delete(e.Extra, "title")
	}
	if t, ok := raw["type"].(string); ok {
		e.Type = t
		delete(e.Extra, "type")
	}
	return nil
}

// Store implements §4.8's filename-keyed operations over a scenes/
// directory tree: scripts/, clips/, and thumbnails/, plus the
// library.json metadata map.
type Store struct {
	scriptsDir    string
	clipsDir      string
	thumbsDir     string
	libraryPath   string
	width, height int
	maxSize       int64

	playlists *playlist.Store

	mu      sync.Mutex
	library map[string]Entry
}

// New constructs a Store rooted at root (which must contain, or will
// be given, scripts/, clips/, and thumbnails/ subdirectories), for a
// device of the given resolution. playlists may be nil if rename
// cascades into playlists are not needed (e.g. in tests).
func New(root string, libraryPath string, width, height int, playlists *playlist.Store) (*Store, error) {
	s := &Store{
		scriptsDir:  filepath.Join(root, "scripts"),
		clipsDir:    filepath.Join(root, "clips"),
		thumbsDir:   filepath.Join(root, "thumbnails"),
		libraryPath: libraryPath,
		width:       width,
		height:      height,
		maxSize:     MaxUploadSize,
		playlists:   playlists,
	}
	for _, dir := range []string{s.scriptsDir, s.clipsDir, s.thumbsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("assetstore: creating %s: %w", dir, err)
		}
	}
	lib, err := jsonstore.LoadMerged(libraryPath, map[string]Entry{})
	if err != nil {
		return nil, err
	}
	if lib == nil {
		lib = map[string]Entry{}
	}
	s.library = lib
	return s, nil
}

// Upload validates filename and data, writes the asset atomically,
// generates a thumbnail for GIF clips, and initializes its library
// metadata entry (§4.8/§7).
func (s *Store) Upload(filename string, data []byte) error {
	if err := validateFilename(filename); err != nil {
		return err
	}
	if int64(len(data)) > s.maxSize {
		return fmt.Errorf("assetstore: %s: %w", filename, errs.ErrAssetTooLarge)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".go":
		if err := s.writeAtomic(filepath.Join(s.scriptsDir, filename), data); err != nil {
			return err
		}
	case ".gif":
		resized, thumb, err := resizeGIFAndThumbnail(data, s.width, s.height, thumbnailScale)
		if err != nil {
			s.cleanupPartial(filepath.Join(s.clipsDir, filename))
			return fmt.Errorf("assetstore: processing %s: %w", filename, err)
		}
		if err := s.writeAtomic(filepath.Join(s.clipsDir, filename), resized); err != nil {
			return err
		}
		thumbName := filename + ".png"
		if err := s.writeAtomic(filepath.Join(s.thumbsDir, thumbName), thumb); err != nil {
			errs.Log(err)
		}
	default:
		return fmt.Errorf("assetstore: %s: %w", filename, errs.ErrUnsupportedAsset)
	}

	s.mu.Lock()
	s.library[filename] = Entry{Title: titleFromFilename(filename), Type: ext[1:]}
	snapshot := s.cloneLibraryLocked()
	s.mu.Unlock()
	return jsonstore.Save(s.libraryPath, snapshot)
}

// Rename moves old to new across the asset file, its thumbnail (if
// any), the library metadata key, and every PlaylistItem referencing
// old (§4.8/§8 scenario 4).
func (s *Store) Rename(old, next string) error {
	if err := validateFilename(old); err != nil {
		return err
	}
	if err := validateFilename(next); err != nil {
		return err
	}
	if filepath.Ext(old) != filepath.Ext(next) {
		return fmt.Errorf("assetstore: rename %s to %s: %w", old, next, errs.ErrInvalidFilename)
	}

	assetDir := s.dirFor(old)
	if err := os.Rename(filepath.Join(assetDir, old), filepath.Join(assetDir, next)); err != nil {
		return fmt.Errorf("assetstore: renaming %s: %w", old, err)
	}

	oldThumb := filepath.Join(s.thumbsDir, old+".png")
	if _, err := os.Stat(oldThumb); err == nil {
		newThumb := filepath.Join(s.thumbsDir, next+".png")
		if err := os.Rename(oldThumb, newThumb); err != nil {
			errs.Log(fmt.Errorf("assetstore: renaming thumbnail for %s: %w", old, err))
		}
	}

	s.mu.Lock()
	if entry, ok := s.library[old]; ok {
		delete(s.library, old)
		s.library[next] = entry
	}
	snapshot := s.cloneLibraryLocked()
	s.mu.Unlock()
	if err := jsonstore.Save(s.libraryPath, snapshot); err != nil {
		return err
	}

	if s.playlists != nil {
		if err := s.playlists.RenameAsset(old, next); err != nil {
			errs.Log(fmt.Errorf("assetstore: cascading rename into playlists: %w", err))
		}
	}
	return nil
}

// Delete removes the asset file, its thumbnail, and its library entry.
func (s *Store) Delete(filename string) error {
	if err := validateFilename(filename); err != nil {
		return err
	}
	path := filepath.Join(s.dirFor(filename), filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("assetstore: deleting %s: %w", filename, err)
	}
	_ = os.Remove(filepath.Join(s.thumbsDir, filename+".png"))

	s.mu.Lock()
	delete(s.library, filename)
	snapshot := s.cloneLibraryLocked()
	s.mu.Unlock()
	return jsonstore.Save(s.libraryPath, snapshot)
}

// Thumbnail returns the stored thumbnail PNG bytes for filename, or
// nil if none exists.
func (s *Store) Thumbnail(filename string) []byte {
	data, err := os.ReadFile(filepath.Join(s.thumbsDir, filename+".png"))
	if err != nil {
		return nil
	}
	return data
}

// StoreThumbnail writes raw PNG bytes as filename's thumbnail,
// overwriting any existing one. Used by the deferred auto-capture
// path (see Scheduler).
func (s *Store) StoreThumbnail(filename string, pngBytes []byte) error {
	return s.writeAtomic(filepath.Join(s.thumbsDir, filename+".png"), pngBytes)
}

// Entry returns the library metadata for filename, if any.
func (s *Store) Entry(filename string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.library[filename]
	return e, ok
}

// List returns every asset filename across both namespaces, sorted.
func (s *Store) List() []string {
	var out []string
	for _, dir := range []string{s.scriptsDir, s.clipsDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				out = append(out, e.Name())
			}
		}
	}
	sort.Strings(out)
	return out
}

func (s *Store) dirFor(filename string) string {
	if strings.ToLower(filepath.Ext(filename)) == ".gif" {
		return s.clipsDir
	}
	return s.scriptsDir
}

func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("assetstore: writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("assetstore: renaming %s into place: %w", path, err)
	}
	return nil
}

func (s *Store) cleanupPartial(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + ".tmp")
}

func (s *Store) cloneLibraryLocked() map[string]Entry {
	out := make(map[string]Entry, len(s.library))
	for k, v := range s.library {
		out[k] = v
	}
	return out
}

// validateFilename rejects path traversal and empty names (§4.8/§7).
func validateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("assetstore: empty filename: %w", errs.ErrInvalidFilename)
	}
	for _, bad := range []string{"..", "/", "\\"} {
		if strings.Contains(name, bad) {
			return fmt.Errorf("assetstore: %q: %w", name, errs.ErrInvalidFilename)
		}
	}
	return nil
}

// titleFromFilename derives a display title by stripping the
// extension, replacing underscores with spaces, and title-casing.
func titleFromFilename(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	words := strings.Split(strings.ReplaceAll(base, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// resizeGIFAndThumbnail resizes every frame of a GIF to wxh, and
// extracts the first frame at scale*(w,h) as a PNG thumbnail, per
// §4.8's upload contract (grounded on original_source/app/routers/
// upload.py's GIF branch, see DESIGN.md and SPEC_FULL.md §4).
func resizeGIFAndThumbnail(data []byte, w, h, scale int) (resizedGIF, thumbnailPNG []byte, err error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, nil, fmt.Errorf("gif has no frames")
	}

	out := &gif.GIF{
		Delay:           g.Delay,
		Disposal:        g.Disposal,
		LoopCount:       g.LoopCount,
		BackgroundIndex: g.BackgroundIndex,
	}
	for _, frame := range g.Image {
		resized := transform.Resize(frame, w, h, transform.NearestNeighbor)
		paletted := image.NewPaletted(resized.Bounds(), frame.Palette)
		for y := resized.Bounds().Min.Y; y < resized.Bounds().Max.Y; y++ {
			for x := resized.Bounds().Min.X; x < resized.Bounds().Max.X; x++ {
				paletted.Set(x, y, resized.At(x, y))
			}
		}
		out.Image = append(out.Image, paletted)
	}

	var gifBuf bytes.Buffer
	if err := gif.EncodeAll(&gifBuf, out); err != nil {
		return nil, nil, fmt.Errorf("encoding resized gif: %w", err)
	}

	thumb := transform.Resize(g.Image[0], w*scale, h*scale, transform.NearestNeighbor)
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, thumb); err != nil {
		return nil, nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return gifBuf.Bytes(), pngBuf.Bytes(), nil
}
