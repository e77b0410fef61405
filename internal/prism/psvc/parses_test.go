package psvc

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/prismlang/prism/internal/prism/server/serr"
)

func Test_RunParse_Success(t *testing.T) {
	assert := assert.New(t)
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	grammar, err := svc.CreateGrammar(ctx, owner, "greeting", testGrammarSource)
	if !assert.NoError(err) {
		return
	}

	rec, err := svc.RunParse(ctx, owner, grammar.ID, "start", "hello")
	if !assert.NoError(err) {
		return
	}
	assert.Equal("start", rec.Rule)
	assert.Equal(grammar.ID, rec.GrammarID)
}

func Test_RunParse_GrammarNotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.RunParse(context.Background(), uuid.New(), uuid.New(), "start", "hello")
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func Test_GetParse_RoundTrip(t *testing.T) {
	assert := assert.New(t)
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	grammar, err := svc.CreateGrammar(ctx, owner, "greeting", testGrammarSource)
	if !assert.NoError(err) {
		return
	}
	created, err := svc.RunParse(ctx, owner, grammar.ID, "start", "hello")
	if !assert.NoError(err) {
		return
	}

	got, err := svc.GetParse(ctx, created.ID)
	if assert.NoError(err) {
		assert.Equal(created.ID, got.ID)
		assert.Equal("hello", got.Input)
	}
}

func Test_GetParse_NotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetParse(context.Background(), uuid.New())
	assert.ErrorIs(t, err, serr.ErrNotFound)
}
