// Package middle contains HTTP middleware for prismd, grounded on
// server/middle: request-scoped auth population and panic recovery.
package middle

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/prismlang/prism/internal/prism/server/result"
	"github.com/prismlang/prism/internal/prism/server/token"
	"github.com/prismlang/prism/internal/prism/store"
)

// AuthKey is a key in a request's context populated by RequireAuth/OptionalAuth.
type AuthKey int64

const (
	AuthLoggedIn AuthKey = iota
	AuthUser
)

// Middleware wraps a handler with additional behavior.
type Middleware func(next http.Handler) http.Handler

type mwFunc http.HandlerFunc

func (f mwFunc) ServeHTTP(w http.ResponseWriter, req *http.Request) { f(w, req) }

type authHandler struct {
	db            store.UserRepository
	secret        []byte
	required      bool
	unauthedDelay time.Duration
	next          http.Handler
}

func (ah *authHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var loggedIn bool
	var user store.UserRecord

	tok, err := token.Get(req)
	if err != nil {
		if ah.required {
			r := result.Unauthorized("", err.Error())
			time.Sleep(ah.unauthedDelay)
			r.WriteResponse(w)
			return
		}
	} else {
		lookupUser, err := token.Validate(req.Context(), tok, ah.secret, ah.db)
		if err != nil {
			if ah.required {
				r := result.Unauthorized("", err.Error())
				time.Sleep(ah.unauthedDelay)
				r.WriteResponse(w)
				return
			}
		} else {
			user = lookupUser
			loggedIn = true
		}
	}

	ctx := context.WithValue(req.Context(), AuthLoggedIn, loggedIn)
	ctx = context.WithValue(ctx, AuthUser, user)
	ah.next.ServeHTTP(w, req.WithContext(ctx))
}

// RequireAuth rejects the request with HTTP-401 if no valid bearer JWT is
// present, otherwise populates AuthUser/AuthLoggedIn in the request context.
func RequireAuth(db store.UserRepository, secret []byte, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return &authHandler{db: db, secret: secret, unauthedDelay: unauthDelay, required: true, next: next}
	}
}

// OptionalAuth populates AuthUser/AuthLoggedIn if a valid bearer JWT is
// present, but never rejects the request for lacking one.
func OptionalAuth(db store.UserRepository, secret []byte, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return &authHandler{db: db, secret: secret, unauthedDelay: unauthDelay, required: false, next: next}
	}
}

// DontPanic recovers a panicking handler into a generic HTTP-500 instead of
// crashing the server, logging the stack trace.
func DontPanic() Middleware {
	return func(next http.Handler) http.Handler {
		return mwFunc(func(w http.ResponseWriter, req *http.Request) {
			defer panicTo500(w)
			next.ServeHTTP(w, req)
		})
	}
}

func panicTo500(w http.ResponseWriter) {
	if panicErr := recover(); panicErr != nil {
		result.TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		).WriteResponse(w)
	}
}
