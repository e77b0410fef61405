package serr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_Is_ChecksCauses(t *testing.T) {
	assert := assert.New(t)

	underlying := errors.New("connection refused")
	wrapped := WrapDB("could not query grammars", underlying)

	assert.True(errors.Is(wrapped, ErrDB))
	assert.True(errors.Is(wrapped, underlying))
	assert.False(errors.Is(wrapped, ErrNotFound))
}

func Test_Error_Error_MessageFormat(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("bad", New("bad").Error())

	withCause := New("bad input", ErrBadArgument)
	assert.Equal("bad input: "+ErrBadArgument.Error(), withCause.Error())

	noMsg := Error{}
	assert.Equal("", noMsg.Error())
}

func Test_New_NoCauses(t *testing.T) {
	err := New("plain message")
	assert.Equal(t, "plain message", err.Error())
	assert.Nil(t, err.Unwrap())
}
