// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scriptapi registers this module's own packages that a
// script scene may import when interpreted by yaegi: scene, surface,
// and colorx. scenesrc loads yaegi's standard-library table alongside
// it. Real yaegi consumers generate this table with `yaegi extract`;
// this module's public surface is small and stable enough that the
// table is maintained by hand instead, the way a small plugin API
// (here three packages) often is when the generator isn't part of
// the build.
package scriptapi

import (
	"reflect"

	"github.com/cogentcore/yaegi/interp"

	"github.com/cogentcore/ledpanel/colorx"
	"github.com/cogentcore/ledpanel/scene"
	"github.com/cogentcore/ledpanel/surface"
)

// Symbols is passed to interp.Interpreter.Use so that scripts can
// `import "github.com/cogentcore/ledpanel/scene"` (and surface,
// colorx) and implement the Scene contract in terms of our own types.
var Symbols = interp.Exports{
	"github.com/cogentcore/ledpanel/scene/scene": {
		"Color":     reflect.ValueOf((*scene.Color)(nil)),
		"Scene":     reflect.ValueOf((*scene.Scene)(nil)),
		"StateView": reflect.ValueOf((*scene.StateView)(nil)),
		"Tagged":    reflect.ValueOf((*scene.Tagged)(nil)),
		"Base":      reflect.ValueOf((*scene.Base)(nil)),
	},
	"github.com/cogentcore/ledpanel/surface/surface": {
		"Surface":       reflect.ValueOf((*surface.Surface)(nil)),
		"ReadPixelFunc": reflect.ValueOf((*surface.ReadPixelFunc)(nil)),
	},
	"github.com/cogentcore/ledpanel/colorx/colorx": {
		"Color":   reflect.ValueOf((*colorx.Color)(nil)),
		"FromHex": reflect.ValueOf(colorx.FromHex),
	},
}
