package psvc

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/prismlang/prism/internal/prism/server/serr"
)

const testGrammarSource = `rule start = "hello";`

func Test_CreateGrammar_And_GetGrammar(t *testing.T) {
	assert := assert.New(t)
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	rec, err := svc.CreateGrammar(ctx, owner, "greeting", testGrammarSource)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("greeting", rec.Name)
	assert.NotEmpty(rec.Artifact)

	got, err := svc.GetGrammar(ctx, rec.ID)
	if assert.NoError(err) {
		assert.Equal(rec.ID, got.ID)
		assert.Equal(testGrammarSource, got.Source)
	}
}

func Test_CreateGrammar_BadSource(t *testing.T) {
	svc := newTestService()
	_, err := svc.CreateGrammar(context.Background(), uuid.New(), "broken", "not a valid grammar {{{")
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func Test_GetGrammar_NotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetGrammar(context.Background(), uuid.New())
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func Test_Adapt_AddsNewRuleAsChildVersion(t *testing.T) {
	assert := assert.New(t)
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	base, err := svc.CreateGrammar(ctx, owner, "greeting", testGrammarSource)
	if !assert.NoError(err) {
		return
	}

	adapted, err := svc.Adapt(ctx, owner, base.ID, `rule farewell = "bye";`)
	if !assert.NoError(err) {
		return
	}
	assert.NotEqual(base.ID, adapted.ID)
	if assert.NotNil(adapted.ParentID) {
		assert.Equal(base.ID, *adapted.ParentID)
	}

	st, err := decodeState(adapted.Artifact)
	if assert.NoError(err) {
		names := st.RuleNames()
		assert.Contains(names, "start")
		assert.Contains(names, "farewell")
	}
}

func Test_Adapt_ParentNotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.Adapt(context.Background(), uuid.New(), uuid.New(), testGrammarSource)
	assert.ErrorIs(t, err, serr.ErrNotFound)
}
