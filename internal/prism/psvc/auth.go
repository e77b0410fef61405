package psvc

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/prismlang/prism/internal/prism/server/serr"
	"github.com/prismlang/prism/internal/prism/store"
)

// Login verifies username/password against the store and returns the
// matching user record. Returns serr.ErrBadCredentials if the username
// doesn't exist or the password doesn't match, grounded on
// server/tunas/auth.go's Login.
func (svc Service) Login(ctx context.Context, username, password string) (store.UserRecord, error) {
	user, err := svc.DB.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.UserRecord{}, serr.ErrBadCredentials
		}
		return store.UserRecord{}, serr.WrapDB("", err)
	}

	bcryptHash, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return store.UserRecord{}, err
	}
	if err := bcrypt.CompareHashAndPassword(bcryptHash, []byte(password)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return store.UserRecord{}, serr.ErrBadCredentials
		}
		return store.UserRecord{}, serr.WrapDB("", err)
	}

	user.LastLoginTime = time.Now()
	user, err = svc.DB.Users().Update(ctx, user.ID, user)
	if err != nil {
		return store.UserRecord{}, serr.WrapDB("cannot update user login time", err)
	}
	return user, nil
}

// Register creates a new account with a bcrypt-hashed password, returning
// serr.ErrAlreadyExists if the username is taken.
func (svc Service) Register(ctx context.Context, username, password string) (store.UserRecord, error) {
	if username == "" {
		return store.UserRecord{}, serr.New("username cannot be blank", serr.ErrBadArgument)
	}
	if password == "" {
		return store.UserRecord{}, serr.New("password cannot be blank", serr.ErrBadArgument)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return store.UserRecord{}, serr.New("password is too long", serr.ErrBadArgument)
		}
		return store.UserRecord{}, serr.New("password could not be encrypted", err)
	}

	user, err := svc.DB.Users().Create(ctx, store.UserRecord{
		Username: username,
		Password: base64.StdEncoding.EncodeToString(passHash),
		Role:     store.RoleUser,
	})
	if err != nil {
		if errors.Is(err, store.ErrConstraintViolation) {
			return store.UserRecord{}, serr.New("a user with that username already exists", serr.ErrAlreadyExists)
		}
		return store.UserRecord{}, serr.WrapDB("could not create user", err)
	}
	return user, nil
}

// Logout marks the user as having logged out, invalidating any JWT issued
// before this call (Generate/Validate sign with LastLogoutTime baked in).
func (svc Service) Logout(ctx context.Context, who store.UserRecord) (store.UserRecord, error) {
	who.LastLogoutTime = time.Now()
	updated, err := svc.DB.Users().Update(ctx, who.ID, who)
	if err != nil {
		return store.UserRecord{}, serr.WrapDB("could not update user", err)
	}
	return updated, nil
}
