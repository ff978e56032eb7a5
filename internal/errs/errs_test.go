package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainRecoversPanic(t *testing.T) {
	err := Contain(func() error {
		panic("boom")
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestContainPassesThroughError(t *testing.T) {
	sentinel := errors.New("nope")
	err := Contain(func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestContainNoError(t *testing.T) {
	err := Contain(func() error { return nil })
	assert.NoError(t, err)
}

func TestContainVoidRecoversPanic(t *testing.T) {
	err := ContainVoid(func() { panic("bang") })
	assert.Error(t, err)
}
