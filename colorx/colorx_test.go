package colorx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHex(t *testing.T) {
	c, err := FromHex("#172347")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x17, G: 0x23, B: 0x47}, c)

	c2, err := FromHex("FF0000")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0xFF, G: 0, B: 0}, c2)
}

func TestFromHexInvalid(t *testing.T) {
	_, err := FromHex("#ABC")
	assert.Error(t, err)
	_, err = FromHex("zzzzzz")
	assert.Error(t, err)
}

func TestHexRoundTrip(t *testing.T) {
	c := Color{R: 1, G: 2, B: 3}
	got, err := FromHex(c.Hex())
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestScale(t *testing.T) {
	c := Color{R: 200, G: 100, B: 50}
	half := c.Scale(0.5)
	assert.Equal(t, Color{R: 100, G: 50, B: 25}, half)

	clamped := Color{R: 250}.Scale(2)
	assert.Equal(t, uint8(255), clamped.R)
}
