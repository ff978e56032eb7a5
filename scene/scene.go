// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scene declares the renderable lifecycle contract shared by
// every scene implementation: scripted scenes, GIF clips, and the
// playlist scene that composes them (§4.3).
package scene

import "github.com/cogentcore/ledpanel/surface"

// StateView is the subset of state.State a Scene's Enter hook may
// consult. It is declared here, rather than imported from the state
// package, to avoid an import cycle between scene and state (state
// holds the active Scene; Scene.Enter takes a StateView).
type StateView interface {
	// PaletteColors resolves the currently selected palette to its
	// ordered hex-decoded colors, or nil if none is selected or the
	// palette cannot be found.
	PaletteColors() []Color
	// Data returns the value previously stored under key via the
	// external integration key/value store, or nil.
	Data(key string) any
}

// Color mirrors colorx.Color without importing colorx here, keeping
// the scene contract's public surface minimal for yaegi-interpreted
// scripts (see internal/scriptapi). It converts losslessly both ways.
type Color struct {
	R, G, B uint8
}

// Scene is any renderable satisfying this lifecycle. Any method may
// panic; the engine and playlist both recover such panics and treat
// them as a contained scene fault (§4.3, §4.7).
type Scene interface {
	// Enter is called once when the scene becomes active. It may
	// allocate resources and must be idempotent under a double call.
	Enter(state StateView)
	// Update is called once per tick with the scaled delta in
	// seconds. It must complete well within the frame budget.
	Update(dt float64)
	// Draw paints the next frame onto surf. It must be deterministic
	// given equal Update inputs.
	Draw(surf *surface.Surface)
	// Exit is called when the scene is replaced or torn down.
	Exit()
}

// Tagged is implemented by scenes that carry an optional filename
// tag, inspected by status queries (§4.3).
type Tagged interface {
	Filename() string
}

// Base is an embeddable no-op implementation of the optional parts
// of the Scene contract (Enter/Exit default to nothing), the way the
// original BaseScene gave every concrete scene an enter/exit default.
// Embedders still implement Update and Draw themselves.
type Base struct {
	filename string
}

// Enter is a no-op default; override by embedding and redefining.
func (b Base) Enter(StateView) {}

// Exit is a no-op default; override by embedding and redefining.
func (b Base) Exit() {}

// Filename implements Tagged.
func (b *Base) Filename() string { return b.filename }

// SetFilename tags the scene, called by scene sources after
// construction (§4.4).
func (b *Base) SetFilename(name string) { b.filename = name }
