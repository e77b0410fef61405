// Package token issues and validates the bearer JWTs prismd uses for
// authentication, grounded on server/token.go: HS512-signed tokens whose
// signing key is the server secret plus the user's password hash plus
// their last-logout timestamp, so that changing a password or logging out
// invalidates every previously-issued token for that account without
// needing a server-side revocation list.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/store"
)

// Generate issues a signed JWT for u, valid for one hour.
func Generate(secret []byte, u store.UserRecord) (string, error) {
	claims := &jwt.MapClaims{
		"iss":        "prismd",
		"exp":        time.Now().Add(time.Hour).Unix(),
		"sub":        u.ID.String(),
		"authorized": true,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(signKey(secret, u))
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

// Get extracts the bearer token from a request's Authorization header.
func Get(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))
	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}
	if strings.ToLower(strings.TrimSpace(parts[0])) != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return strings.TrimSpace(parts[1]), nil
}

// Validate parses and verifies tok against secret, looking up the subject
// user via db to build the same per-user signing key Generate used.
func Validate(ctx context.Context, tok string, secret []byte, db store.UserRepository) (store.UserRecord, error) {
	var user store.UserRecord

	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("cannot get subject: %w", err)
		}

		id, err := uuid.Parse(subj)
		if err != nil {
			return nil, fmt.Errorf("cannot parse subject UUID: %w", err)
		}

		user, err = db.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("subject does not exist")
			}
			return nil, fmt.Errorf("subject could not be validated")
		}

		return signKey(secret, user), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer("prismd"), jwt.WithLeeway(time.Minute))

	if err != nil {
		return store.UserRecord{}, err
	}
	return user, nil
}

func signKey(secret []byte, u store.UserRecord) []byte {
	var key []byte
	key = append(key, secret...)
	key = append(key, []byte(u.Password)...)
	key = append(key, []byte(fmt.Sprintf("%d", u.LastLogoutTime.Unix()))...)
	return key
}
