package token

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prismlang/prism/internal/prism/store"
	"github.com/prismlang/prism/internal/prism/store/memstore"
)

var testSecret = []byte("super-secret-test-key-at-least-32-bytes-long")

func Test_Generate_And_Validate_RoundTrip(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	db := memstore.New().Users()

	user, err := db.Create(ctx, store.UserRecord{Username: "alice", Password: "hashedpw"})
	if !assert.NoError(err) {
		return
	}

	tok, err := Generate(testSecret, user)
	if !assert.NoError(err) {
		return
	}
	assert.NotEmpty(tok)

	validated, err := Validate(ctx, tok, testSecret, db)
	if assert.NoError(err) {
		assert.Equal(user.ID, validated.ID)
	}
}

func Test_Validate_RejectsTokenAfterLogout(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	db := memstore.New().Users()

	user, err := db.Create(ctx, store.UserRecord{Username: "bob", Password: "hashedpw"})
	if !assert.NoError(err) {
		return
	}

	tok, err := Generate(testSecret, user)
	if !assert.NoError(err) {
		return
	}

	user.LastLogoutTime = time.Now()
	user, err = db.Update(ctx, user.ID, user)
	if !assert.NoError(err) {
		return
	}

	_, err = Validate(ctx, tok, testSecret, db)
	assert.Error(err)
}

func Test_Validate_RejectsWrongSecret(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	db := memstore.New().Users()

	user, err := db.Create(ctx, store.UserRecord{Username: "carol", Password: "hashedpw"})
	if !assert.NoError(err) {
		return
	}

	tok, err := Generate(testSecret, user)
	if !assert.NoError(err) {
		return
	}

	_, err = Validate(ctx, tok, []byte("a-totally-different-secret-value"), db)
	assert.Error(err)
}

func Test_Get_ParsesBearerHeader(t *testing.T) {
	assert := assert.New(t)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	tok, err := Get(req)
	if assert.NoError(err) {
		assert.Equal("abc.def.ghi", tok)
	}
}

func Test_Get_MissingHeader(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := Get(req)
	assert.Error(t, err)
}

func Test_Get_MalformedHeader(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "NotBearer abc")
	_, err := Get(req)
	assert.Error(t, err)
}
