// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs provides the error-containment helpers used to keep a
// single misbehaving scene or device call from taking down the
// render loop: logging helpers and a panic-to-error recovery wrapper.
package errs

import (
	"errors"
	"fmt"
	"log/slog"
)

// Sentinel errors compared with errors.Is at the component boundaries
// that must reject synchronously (§7 "input faults").
var (
	ErrSceneNotFound    = errors.New("scene not found or could not be loaded")
	ErrPaletteBuiltin   = errors.New("cannot modify a built-in palette")
	ErrPaletteNotFound  = errors.New("palette not found")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrUnsupportedAsset = errors.New("unsupported asset type")
	ErrAssetTooLarge    = errors.New("asset exceeds maximum upload size")
	ErrUnknownSetting   = errors.New("unknown setting")
)

// Log logs err at error level if it is non-nil and returns it unchanged.
// The intended usage is:
//
//	return errs.Log(doThing())
func Log(err error) error {
	if err != nil {
		slog.Error(err.Error())
	}
	return err
}

// Logf is like Log but attaches context describing where the error
// was observed.
func Logf(err error, context string, args ...any) error {
	if err != nil {
		slog.Error(fmt.Sprintf(context, args...)+": "+err.Error(), "error", err)
	}
	return err
}

// Contain calls f and converts any panic raised within it into an
// error, so that a single faulty scene lifecycle method cannot crash
// the render loop (spec §4.3, §4.5, §5: scene faults are caught and
// contained at the engine/playlist boundary).
func Contain(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic: %v", r)
		}
	}()
	return f()
}

// ContainVoid is Contain for functions with no return value, such as
// exit() hooks.
func ContainVoid(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic: %v", r)
		}
	}()
	f()
	return nil
}
