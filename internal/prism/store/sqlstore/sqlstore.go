// Package sqlstore is a sqlite-backed store.Store, grounded on the
// teacher's server/dao/sqlite package: a single *sql.DB shared by all
// repositories, per-repository init() methods issuing CREATE TABLE IF NOT
// EXISTS, and convertToDB_*/convertFromDB_* helpers bridging Go types to
// the column types sqlite is happy storing.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/prismlang/prism/internal/prism/store"
)

// sqlStore is a store.Store backed by a single sqlite database file shared
// by every repository, mirroring the teacher's one-*sql.DB-per-file
// pattern collapsed to one file since prismd has only two entity tables.
type sqlStore struct {
	db *sql.DB

	users    *userRepo
	grammars *grammarRepo
	parses   *parseRepo
}

// New opens (creating if necessary) a sqlite database at file and returns
// a store.Store backed by it.
func New(file string) (store.Store, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &sqlStore{db: db}

	s.users, err = newUserRepo(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init users table: %w", err)
	}
	s.grammars, err = newGrammarRepo(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init grammars table: %w", err)
	}
	s.parses, err = newParseRepo(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init parses table: %w", err)
	}

	return s, nil
}

func (s *sqlStore) Users() store.UserRepository       { return s.users }
func (s *sqlStore) Grammars() store.GrammarRepository { return s.grammars }
func (s *sqlStore) Parses() store.ParseRepository     { return s.parses }

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// wrapDBError normalizes sqlite/database-sql errors to the sentinel errors
// store callers check with errors.Is, mirroring the teacher's wrapDBError.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	// modernc.org/sqlite surfaces constraint violations as plain *sqlite.Error
	// whose message contains "constraint failed"; match on that rather than
	// importing the driver's internal error type, since database/sql wraps
	// driver errors without a stable exported type across versions.
	if msg := err.Error(); containsConstraintFailure(msg) {
		return store.ErrConstraintViolation
	}
	return err
}

func containsConstraintFailure(msg string) bool {
	const needle = "constraint failed"
	for i := 0; i+len(needle) <= len(msg); i++ {
		if msg[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
