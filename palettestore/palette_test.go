package palettestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentcore/ledpanel/internal/errs"
	"github.com/cogentcore/ledpanel/internal/jsonstore"
)

func TestLookupChecksBuiltinsFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palettes.json")
	// A user entry under a built-in id can only come from the file on
	// disk, since Save rejects built-in ids.
	require.NoError(t, jsonstore.Save(path, map[string]Palette{
		"aurora": {ID: "aurora", Name: "shadowed", Colors: []string{"#000000"}},
	}))
	s, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Save("aurora-ish", Palette{Name: "mine", Colors: []string{"#000000"}}))

	p, ok := s.Get("aurora")
	require.True(t, ok)
	assert.Equal(t, "Aurora", p.Name)

	p2, ok := s.Get("aurora-ish")
	require.True(t, ok)
	assert.Equal(t, "mine", p2.Name)
}

func TestCannotDeleteBuiltin(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "palettes.json"))
	require.NoError(t, err)
	err = s.Delete("fire")
	assert.ErrorIs(t, err, errs.ErrPaletteBuiltin)
}

func TestCannotOverwriteBuiltin(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "palettes.json"))
	require.NoError(t, err)
	err = s.Save("ocean", Palette{Name: "nope"})
	assert.ErrorIs(t, err, errs.ErrPaletteBuiltin)
}

func TestSavePersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palettes.json")
	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("mine", Palette{Name: "Mine", Colors: []string{"#112233"}}))

	s2, err := NewStore(path)
	require.NoError(t, err)
	p, ok := s2.Get("mine")
	require.True(t, ok)
	assert.Equal(t, "Mine", p.Name)
}

func TestDeleteThenLookupFails(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "palettes.json"))
	require.NoError(t, err)
	require.NoError(t, s.Save("mine", Palette{Colors: []string{"#112233"}}))
	require.NoError(t, s.Delete("mine"))

	_, ok := s.Get("mine")
	assert.False(t, ok)
}

func TestColorsDecodesHex(t *testing.T) {
	p := Palette{ID: "x", Colors: []string{"#FF0000", "bad", "#00FF00"}}
	got := Colors(p)
	require.Len(t, got, 2)
	assert.Equal(t, uint8(0xFF), got[0].R)
	assert.Equal(t, uint8(0xFF), got[1].G)
}
