package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/prismlang/prism/internal/prism/store"
)

func newTestStore(t *testing.T) store.Store {
	dbPath := filepath.Join(t.TempDir(), "prism.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("could not open test store: %s", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func Test_UserRepo_Create_And_GetByUsername(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Users().Create(ctx, store.UserRecord{
		Username: "alice",
		Password: "hashed",
		Role:     store.RoleUser,
	})
	if !assert.NoError(err) {
		return
	}
	assert.NotEqual(uuid.Nil, created.ID)

	got, err := s.Users().GetByUsername(ctx, "alice")
	if assert.NoError(err) {
		assert.Equal(created.ID, got.ID)
	}
}

func Test_UserRepo_Create_DuplicateUsername(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Users().Create(ctx, store.UserRecord{Username: "bob", Password: "x"})
	assert.NoError(err)

	_, err = s.Users().Create(ctx, store.UserRecord{Username: "bob", Password: "y"})
	assert.ErrorIs(err, store.ErrConstraintViolation)
}

func Test_GrammarRepo_Create_And_GetByID(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)
	ctx := context.Background()
	owner := uuid.New()

	rec, err := s.Grammars().Create(ctx, store.GrammarRecord{
		Name:     "arith",
		Source:   "start => expr",
		Artifact: []byte{1, 2, 3, 4},
		Owner:    owner,
	})
	if !assert.NoError(err) {
		return
	}

	got, err := s.Grammars().GetByID(ctx, rec.ID)
	if assert.NoError(err) {
		assert.Equal("arith", got.Name)
		assert.Equal([]byte{1, 2, 3, 4}, got.Artifact)
		assert.Equal(owner, got.Owner)
	}
}

func Test_GrammarRepo_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Grammars().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_ParseRepo_Create_And_GetByID(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)
	ctx := context.Background()
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
