package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/store"
)

// grammarRepo is a store.GrammarRepository backed by a "grammars" table,
// grounded on server/dao/sqlite/games.go's init/Create/GetByID shape.
type grammarRepo struct {
	db *sql.DB
}

func newGrammarRepo(db *sql.DB) (*grammarRepo, error) {
	r := &grammarRepo{db: db}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *grammarRepo) init() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS grammars (
			id TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			artifact TEXT NOT NULL,
			parent_id TEXT NOT NULL,
			created INTEGER NOT NULL,
			owner TEXT NOT NULL
		)
	`)
	return wrapDBError(err)
}

func (r *grammarRepo) Create(ctx context.Context, rec store.GrammarRecord) (store.GrammarRecord, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return store.GrammarRecord{}, err
	}
	rec.ID = id
	rec.Created = time.Now()

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO grammars (id, name, source, artifact, parent_id, created, owner)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return store.GrammarRecord{}, wrapDBError(err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		convertToDB_UUID(rec.ID),
		rec.Name,
		rec.Source,
		convertToDB_ByteSlice(rec.Artifact),
		convertToDB_UUIDPtr(rec.ParentID),
		convertToDB_Time(rec.Created),
		convertToDB_UUID(rec.Owner),
	)
	if err != nil {
		return store.GrammarRecord{}, wrapDBError(err)
	}

	return r.GetByID(ctx, id)
}

func (r *grammarRepo) GetByID(ctx context.Context, id uuid.UUID) (store.GrammarRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, source, artifact, parent_id, created, owner
		FROM grammars WHERE id = ?
	`, convertToDB_UUID(id))

	rec, err := scanGrammarRow(row.Scan)
	if err != nil {
		return store.GrammarRecord{}, wrapDBError(err)
	}
	return rec, nil
}

func (r *grammarRepo) GetAllByOwner(ctx context.Context, owner uuid.UUID) ([]store.GrammarRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, source, artifact, parent_id, created, owner
		FROM grammars WHERE owner = ?
	`, convertToDB_UUID(owner))
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var out []store.GrammarRecord
	for rows.Next() {
		rec, err := scanGrammarRow(rows.Scan)
		if err != nil {
			return nil, wrapDBError(err)
		}
		out = append(out, rec)
	}
	return out, wrapDBError(rows.Err())
}

func (r *grammarRepo) Close() error { return nil }

// scanGrammarRow decodes one grammars row via the given scan function,
// shared between QueryRow.Scan and Rows.Scan call sites.
func scanGrammarRow(scan func(dest ...any) error) (store.GrammarRecord, error) {
	var (
		rec                          store.GrammarRecord
		idStr, parentIDStr, ownerStr string
		artifactStr                  string
		createdInt                   int64
	)
	err := scan(&idStr, &rec.Name, &rec.Source, &artifactStr, &parentIDStr, &createdInt, &ownerStr)
	if err != nil {
		return store.GrammarRecord{}, err
	}

	if err := convertFromDB_UUID(idStr, &rec.ID); err != nil {
		return store.GrammarRecord{}, err
	}
	if err := convertFromDB_UUIDPtr(parentIDStr, &rec.ParentID); err != nil {
		return store.GrammarRecord{}, err
	}
	if err := convertFromDB_ByteSlice(artifactStr, &rec.Artifact); err != nil {
		return store.GrammarRecord{}, err
	}
	if err := convertFromDB_Time(createdInt, &rec.Created); err != nil {
		return store.GrammarRecord{}, err
	}
	if err := convertFromDB_UUID(ownerStr, &rec.Owner); err != nil {
		return store.GrammarRecord{}, err
	}
	return rec, nil
}
