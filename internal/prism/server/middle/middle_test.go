package middle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prismlang/prism/internal/prism/server/token"
	"github.com/prismlang/prism/internal/prism/store"
	"github.com/prismlang/prism/internal/prism/store/memstore"
)

var testSecret = []byte("super-secret-test-key-at-least-32-bytes-long")

func newAuthedUser(t *testing.T, db store.UserRepository) (store.UserRecord, string) {
	user, err := db.Create(context.Background(), store.UserRecord{Username: "alice", Password: "hashedpw"})
	if err != nil {
		t.Fatalf("could not create user: %s", err)
	}
	tok, err := token.Generate(testSecret, user)
	if err != nil {
		t.Fatalf("could not generate token: %s", err)
	}
	return user, tok
}

func Test_RequireAuth_RejectsMissingToken(t *testing.T) {
	db := memstore.New().Users()
	handler := RequireAuth(db, testSecret, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_RequireAuth_AllowsValidToken(t *testing.T) {
	db := memstore.New().Users()
	user, tok := newAuthedUser(t, db)

	var sawUser store.UserRecord
	var sawLoggedIn bool
	handler := RequireAuth(db, testSecret, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUser, _ = r.Context().Value(AuthUser).(store.UserRecord)
		sawLoggedIn, _ = r.Context().Value(AuthLoggedIn).(bool)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sawLoggedIn)
	assert.Equal(t, user.ID, sawUser.ID)
}

func Test_OptionalAuth_AllowsMissingToken(t *testing.T) {
	db := memstore.New().Users()

	var sawLoggedIn bool
	handler := OptionalAuth(db, testSecret, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLoggedIn, _ = r.Context().Value(AuthLoggedIn).(bool)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sawLoggedIn)
}

func Test_DontPanic_RecoversPanickingHandler(t *testing.T) {
	handler := DontPanic()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, req)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
