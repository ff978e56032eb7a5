package scenesrc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentcore/ledpanel/internal/errs"
)

const redFillScript = `
package main

import (
	"github.com/cogentcore/ledpanel/colorx"
	"github.com/cogentcore/ledpanel/scene"
	"github.com/cogentcore/ledpanel/surface"
)

type redFill struct {
	scene.Base
}

func (r *redFill) Update(dt float64) {}

func (r *redFill) Draw(surf *surface.Surface) {
	surf.Fill(colorx.Color{R: 255})
}

func New(width, height int) scene.Scene {
	return &redFill{}
}
`

func writeScript(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func TestListEnumeratesScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "red.go", redFillScript)
	src, err := NewScriptSource(dir)
	require.NoError(t, err)

	files, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"red.go"}, files)
}

func TestInstantiateMissingFile(t *testing.T) {
	src, err := NewScriptSource(t.TempDir())
	require.NoError(t, err)
	_, err = src.Instantiate("nope.go", 4, 4)
	assert.ErrorIs(t, err, errs.ErrSceneNotFound)
}

func TestInstantiateRejectsPathTraversal(t *testing.T) {
	src, err := NewScriptSource(t.TempDir())
	require.NoError(t, err)
	_, err = src.Instantiate("../evil.go", 4, 4)
	assert.ErrorIs(t, err, errs.ErrInvalidFilename)
}

func TestInstantiateTagsFilename(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "red.go", redFillScript)
	src, err := NewScriptSource(dir)
	require.NoError(t, err)

	sc, err := src.Instantiate("red.go", 8, 8)
	require.NoError(t, err)
	tagged, ok := sc.(interface{ Filename() string })
	require.True(t, ok)
	assert.Equal(t, "red.go", tagged.Filename())
}
