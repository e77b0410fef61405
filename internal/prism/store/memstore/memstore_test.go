package memstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/prismlang/prism/internal/prism/store"
)

func Test_UserRepo_Create_And_GetByUsername(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.Users().Create(ctx, store.UserRecord{
		Username: "alice",
		Password: "hashed",
		Role:     store.RoleUser,
	})
	assert := assert.New(t)
	if !assert.NoError(err) {
		return
	}
	assert.NotEqual(uuid.Nil, created.ID)
	assert.False(created.Created.IsZero())

	got, err := s.Users().GetByUsername(ctx, "alice")
	if assert.NoError(err) {
		assert.Equal(created.ID, got.ID)
		assert.Equal("alice", got.Username)
	}
}

func Test_UserRepo_Create_DuplicateUsername(t *testing.T) {
	s := New()
	ctx := context.Background()
	assert := assert.New(t)

	_, err := s.Users().Create(ctx, store.UserRecord{Username: "bob", Password: "x"})
	assert.NoError(err)

	_, err = s.Users().Create(ctx, store.UserRecord{Username: "bob", Password: "y"})
	assert.ErrorIs(err, store.ErrConstraintViolation)
}

func Test_UserRepo_GetByID_NotFound(t *testing.T) {
	s := New()
	_, err := s.Users().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_UserRepo_Update(t *testing.T) {
	s := New()
	ctx := context.Background()
	assert := assert.New(t)

	created, err := s.Users().Create(ctx, store.UserRecord{Username: "carol", Password: "x"})
	if !assert.NoError(err) {
		return
	}

	created.Role = store.RoleAdmin
	updated, err := s.Users().Update(ctx, created.ID, created)
	if assert.NoError(err) {
		assert.Equal(store.RoleAdmin, updated.Role)
	}

	got, err := s.Users().GetByID(ctx, created.ID)
	if assert.NoError(err) {
		assert.Equal(store.RoleAdmin, got.Role)
	}
}

func Test_UserRepo_Update_NotFound(t *testing.T) {
	s := New()
	_, err := s.Users().Update(context.Background(), uuid.New(), store.UserRecord{Username: "nobody"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_GrammarRepo_Create_And_GetByID(t *testing.T) {
	s := New()
	ctx := context.Background()
	assert := assert.New(t)
	owner := uuid.New()

	rec, err := s.Grammars().Create(ctx, store.GrammarRecord{
		Name:     "arith",
		Source:   "start => expr",
		Artifact: []byte{1, 2, 3},
		Owner:    owner,
	})
	if !assert.NoError(err) {
		return
	}
	assert.NotEqual(uuid.Nil, rec.ID)

	got, err := s.Grammars().GetByID(ctx, rec.ID)
	if assert.NoError(err) {
		assert.Equal("arith", got.Name)
		assert.Equal(owner, got.Owner)
	}
}

func Test_ParseRepo_Create_And_GetByID(t *testing.T) {
	s := New()
	ctx := context.Background()
	assert := assert.New(t)
	owner := uuid.New()
	grammarID := uuid.New()

	rec, err := s.Parses().Create(ctx, store.ParseRecord{
		GrammarID:  grammarID,
		Rule:       "start",
		Input:      "1 + 2",
		ResultJSON: []byte(`{"value":3}`),
		Owner:      owner,
	})
	if !assert.NoError(err) {
		return
	}

	got, err := s.Parses().GetByID(ctx, rec.ID)
	if assert.NoError(err) {
		assert.Equal("start", got.Rule)
		assert.Equal(grammarID, got.GrammarID)
	}
}
