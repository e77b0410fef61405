// Package memstore is an in-memory store.Store, grounded on
// server/dao/inmem: map-backed repositories keyed by uuid.UUID, fresh IDs
// and timestamps minted on Create. Unlike server/dao/inmem, each repository
// guards its map with a sync.RWMutex, since prismd's concurrency model
// (internal/prism/server) serves concurrent requests against a single
// shared store.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/store"
)

type memStore struct {
	users    *userRepo
	grammars *grammarRepo
	parses   *parseRepo
}

// New returns a store.Store backed entirely by in-process maps.
func New() store.Store {
	return &memStore{
		users:    newUserRepo(),
		grammars: newGrammarRepo(),
		parses:   newParseRepo(),
	}
}

func (s *memStore) Users() store.UserRepository       { return s.users }
func (s *memStore) Grammars() store.GrammarRepository { return s.grammars }
func (s *memStore) Parses() store.ParseRepository     { return s.parses }
func (s *memStore) Close() error                      { return nil }

type userRepo struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]store.UserRecord
	byUsername map[string]uuid.UUID
}

func newUserRepo() *userRepo {
	return &userRepo{
		byID:       make(map[uuid.UUID]store.UserRecord),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (r *userRepo) Create(ctx context.Context, rec store.UserRecord) (store.UserRecord, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return store.UserRecord{}, fmt.Errorf("generate id: %w", err)
	}
	rec.ID = id
	rec.Created = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byUsername[rec.Username]; taken {
		return store.UserRecord{}, store.ErrConstraintViolation
	}
	r.byID[id] = rec
	r.byUsername[rec.Username] = id
	return rec, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (store.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return store.UserRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (store.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return store.UserRecord{}, store.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, rec store.UserRecord) (store.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return store.UserRecord{}, store.ErrNotFound
	}
	rec.ID = id
	r.byID[id] = rec
	return rec, nil
}

func (r *userRepo) Close() error { return nil }

type grammarRepo struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]store.GrammarRecord
}

func newGrammarRepo() *grammarRepo {
	return &grammarRepo{byID: make(map[uuid.UUID]store.GrammarRecord)}
}

func (r *grammarRepo) Create(ctx context.Context, rec store.GrammarRecord) (store.GrammarRecord, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return store.GrammarRecord{}, fmt.Errorf("generate id: %w", err)
	}
	rec.ID = id
	rec.Created = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = rec
	return rec, nil
}

func (r *grammarRepo) GetByID(ctx context.Context, id uuid.UUID) (store.GrammarRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return store.GrammarRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *grammarRepo) GetAllByOwner(ctx context.Context, owner uuid.UUID) ([]store.GrammarRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []store.GrammarRecord
	for _, rec := range r.byID {
		if rec.Owner == owner {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *grammarRepo) Close() error { return nil }

type parseRepo struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]store.ParseRecord
}

func newParseRepo() *parseRepo {
	return &parseRepo{byID: make(map[uuid.UUID]store.ParseRecord)}
}

func (r *parseRepo) Create(ctx context.Context, rec store.ParseRecord) (store.ParseRecord, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return store.ParseRecord{}, fmt.Errorf("generate id: %w", err)
	}
	rec.ID = id
	rec.Created = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = rec
	return rec, nil
}

func (r *parseRepo) GetByID(ctx context.Context, id uuid.UUID) (store.ParseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return store.ParseRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *parseRepo) Close() error { return nil }
