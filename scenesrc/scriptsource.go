// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scenesrc implements the two scene providers of §4.4: a
// directory of dynamically-interpreted Go "scripts" and a directory
// of GIF "clips", each a namespaced lookup by filename.
package scenesrc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cogentcore/yaegi/interp"
	"github.com/cogentcore/yaegi/stdlib"

	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/internal/scriptapi"
	"github.com/cogentcore/ledpanel/scene"
)

// ScriptSource is a directory of Go source files, each expected to
// define exactly one scene and export a constructor:
//
//	func New(width, height int) scene.Scene
//
// Design note §9: the original scans a directory and reflects on
// loaded Python modules to find a conforming class. Interpreting Go
// source with yaegi gives the same "load arbitrary source text at
// runtime" capability without reflection over compiled code.
type ScriptSource struct {
	dir string
}

// NewScriptSource returns a ScriptSource rooted at dir, creating it
// if necessary.
func NewScriptSource(dir string) (*ScriptSource, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scenesrc: creating %s: %w", dir, err)
	}
	return &ScriptSource{dir: dir}, nil
}

// List enumerates the script filenames available in the directory.
func (s *ScriptSource) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scenesrc: listing %s: %w", s.dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".go" {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Instantiate loads filename, interprets it, and constructs a new
// scene instance tagged with its filename. width and height are the
// device dimensions the scene is built against.
func (s *ScriptSource) Instantiate(filename string, width, height int) (scene.Scene, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, filename)
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scenesrc: %s: %w", filename, errs.ErrSceneNotFound)
		}
		return nil, fmt.Errorf("scenesrc: reading %s: %w", filename, err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("scenesrc: %s: registering stdlib symbols: %w", filename, err)
	}
	if err := i.Use(scriptapi.Symbols); err != nil {
		return nil, fmt.Errorf("scenesrc: %s: registering script API symbols: %w", filename, err)
	}

	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("scenesrc: %s: %w: %v", filename, errs.ErrSceneNotFound, err)
	}

	v, err := i.Eval("main.New")
	if err != nil {
		return nil, fmt.Errorf("scenesrc: %s: no main.New constructor: %w", filename, errs.ErrSceneNotFound)
	}
	ctor, ok := v.Interface().(func(int, int) scene.Scene)
	if !ok {
		return nil, fmt.Errorf("scenesrc: %s: main.New has the wrong signature: %w", filename, errs.ErrSceneNotFound)
	}

	var instance scene.Scene
	if constructErr := errs.Contain(func() error {
		instance = ctor(width, height)
		if instance == nil {
			return fmt.Errorf("main.New returned nil")
		}
		return nil
	}); constructErr != nil {
		return nil, fmt.Errorf("scenesrc: %s: constructing scene: %w", filename, constructErr)
	}

	if tagged, ok := instance.(interface{ SetFilename(string) }); ok {
		tagged.SetFilename(filename)
	}
	return instance, nil
}

// validateFilename rejects path traversal, matching the asset store's
// rules (§6/§7).
func validateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("scenesrc: empty filename: %w", errs.ErrInvalidFilename)
	}
	for _, bad := range []string{"..", "/", "\\"} {
		if strings.Contains(name, bad) {
			return fmt.Errorf("scenesrc: %q: %w", name, errs.ErrInvalidFilename)
		}
	}
	return nil
}
