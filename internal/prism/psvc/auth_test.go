package psvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prismlang/prism/internal/prism/server/serr"
	"github.com/prismlang/prism/internal/prism/store/memstore"
)

func newTestService() Service {
	return Service{DB: memstore.New()}
}

func Test_Register_And_Login(t *testing.T) {
	assert := assert.New(t)
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "correct horse battery staple")
	if !assert.NoError(err) {
		return
	}
	assert.Equal("alice", user.Username)
	assert.NotEqual("correct horse battery staple", user.Password)

	loggedIn, err := svc.Login(ctx, "alice", "correct horse battery staple")
	if assert.NoError(err) {
		assert.Equal(user.ID, loggedIn.ID)
		assert.False(loggedIn.LastLoginTime.IsZero())
	}
}

func Test_Login_WrongPassword(t *testing.T) {
	assert := assert.New(t)
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "realpassword")
	if !assert.NoError(err) {
		return
	}

	_, err = svc.Login(ctx, "bob", "wrongpassword")
	assert.ErrorIs(err, serr.ErrBadCredentials)
}

func Test_Login_UnknownUsername(t *testing.T) {
	svc := newTestService()
	_, err := svc.Login(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, serr.ErrBadCredentials)
}

func Test_Register_DuplicateUsername(t *testing.T) {
	assert := assert.New(t)
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol", "password1")
	if !assert.NoError(err) {
		return
	}

	_, err = svc.Register(ctx, "carol", "password2")
	assert.ErrorIs(err, serr.ErrAlreadyExists)
}

func Test_Register_BlankFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "password")
	assert.ErrorIs(t, err, serr.ErrBadArgument)

	_, err = svc.Register(ctx, "dave", "")
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func Test_Logout_InvalidatesFutureTokenWindow(t *testing.T) {
	assert := assert.New(t)
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "erin", "password1")
	if !assert.NoError(err) {
		return
	}
	assert.True(user.LastLogoutTime.IsZero())

	updated, err := svc.Logout(ctx, user)
	if assert.NoError(err) {
		assert.False(updated.LastLogoutTime.IsZero())
	}
}
