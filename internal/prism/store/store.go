// Package store provides data access objects for persisted grammars and
// parse results, grounded on the teacher's server/dao package: a Store
// interface exposing one repository per entity, repository interfaces
// taking a context.Context and returning (value, error), and uuid.UUID
// identity throughout.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/perr"
)

var (
	// ErrNotFound mirrors dao.ErrNotFound: the requested resource does not
	// exist.
	ErrNotFound = errors.New("the requested resource was not found")

	// ErrConstraintViolation mirrors dao.ErrConstraintViolation.
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
)

// Store holds all repositories, mirroring dao.Store's shape.
type Store interface {
	Users() UserRepository
	Grammars() GrammarRepository
	Parses() ParseRepository
	Close() error
}

// Role is a user's permission level, mirroring dao.Role.
type Role int

const (
	RoleUnverified Role = iota
	RoleUser
	RoleAdmin
)

// UserRecord is an account able to authenticate against the HTTP API and
// own grammars/parses.
type UserRecord struct {
	ID uuid.UUID

	Username string

	// Password is the bcrypt hash of the account's password, never the
	// plaintext.
	Password string

	Role Role

	Created        time.Time
	LastLoginTime  time.Time
	LastLogoutTime time.Time
}

// UserRepository persists UserRecords.
type UserRepository interface {
	Create(ctx context.Context, rec UserRecord) (UserRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (UserRecord, error)
	GetByUsername(ctx context.Context, username string) (UserRecord, error)
	Update(ctx context.Context, id uuid.UUID, rec UserRecord) (UserRecord, error)
	Close() error
}

// GrammarRecord is a persisted, possibly-adapted grammar version.
type GrammarRecord struct {
	ID uuid.UUID

	Name string

	// Source is the original grammar declaration text, if this record was
	// compiled from source rather than produced purely by an @adapt chain.
	Source string

	// Artifact is the rezi-encoded grammarval.File this record resolves to.
	Artifact []byte

	// ParentID is the grammar version this one was adapted from, nil for a
	// root grammar.
	ParentID *uuid.UUID

	Created time.Time
	Owner   uuid.UUID
}

// GrammarRepository persists GrammarRecords.
type GrammarRepository interface {
	Create(ctx context.Context, rec GrammarRecord) (GrammarRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (GrammarRecord, error)
	GetAllByOwner(ctx context.Context, owner uuid.UUID) ([]GrammarRecord, error)
	Close() error
}

// ParseRecord is a persisted result of running a rule against an input.
type ParseRecord struct {
	ID          uuid.UUID
	GrammarID   uuid.UUID
	Rule        string
	Input       string
	ResultJSON  []byte
	Diagnostics []perr.Diagnostic
	Created     time.Time
	Owner       uuid.UUID
}

// ParseRepository persists ParseRecords.
type ParseRepository interface {
	Create(ctx context.Context, rec ParseRecord) (ParseRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (ParseRecord, error)
	Close() error
}
