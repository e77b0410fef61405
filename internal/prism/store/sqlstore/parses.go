package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/store"
)

// parseRepo is a store.ParseRepository backed by a "parses" table.
type parseRepo struct {
	db *sql.DB
}

func newParseRepo(db *sql.DB) (*parseRepo, error) {
	r := &parseRepo{db: db}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *parseRepo) init() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS parses (
			id TEXT NOT NULL PRIMARY KEY,
			grammar_id TEXT NOT NULL,
			rule TEXT NOT NULL,
			input TEXT NOT NULL,
			result_json TEXT NOT NULL,
			diagnostics TEXT NOT NULL,
			created INTEGER NOT NULL,
			owner TEXT NOT NULL
		)
	`)
	return wrapDBError(err)
}

func (r *parseRepo) Create(ctx context.Context, rec store.ParseRecord) (store.ParseRecord, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return store.ParseRecord{}, err
	}
	rec.ID = id
	rec.Created = time.Now()

	diagStr, err := convertToDB_Diagnostics(rec.Diagnostics)
	if err != nil {
		return store.ParseRecord{}, err
	}

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO parses (id, grammar_id, rule, input, result_json, diagnostics, created, owner)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return store.ParseRecord{}, wrapDBError(err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		convertToDB_UUID(rec.ID),
		convertToDB_UUID(rec.GrammarID),
		rec.Rule,
		rec.Input,
		convertToDB_ByteSlice(rec.ResultJSON),
		diagStr,
		convertToDB_Time(rec.Created),
		convertToDB_UUID(rec.Owner),
	)
	if err != nil {
		return store.ParseRecord{}, wrapDBError(err)
	}

	return r.GetByID(ctx, id)
}

func (r *parseRepo) GetByID(ctx context.Context, id uuid.UUID) (store.ParseRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, grammar_id, rule, input, result_json, diagnostics, created, owner
		FROM parses WHERE id = ?
	`, convertToDB_UUID(id))

	var (
		rec                 store.ParseRecord
		idStr, grammarIDStr string
		resultStr, diagStr  string
		ownerStr            string
		createdInt          int64
	)
	err := row.Scan(&idStr, &grammarIDStr, &rec.Rule, &rec.Input, &resultStr, &diagStr, &createdInt, &ownerStr)
	if err != nil {
		return store.ParseRecord{}, wrapDBError(err)
	}

	if err := convertFromDB_UUID(idStr, &rec.ID); err != nil {
		return store.ParseRecord{}, err
	}
	if err := convertFromDB_UUID(grammarIDStr, &rec.GrammarID); err != nil {
		return store.ParseRecord{}, err
	}
	if err := convertFromDB_ByteSlice(resultStr, &rec.ResultJSON); err != nil {
		return store.ParseRecord{}, err
	}
	if err := convertFromDB_Diagnostics(diagStr, &rec.Diagnostics); err != nil {
		return store.ParseRecord{}, err
	}
	if err := convertFromDB_Time(createdInt, &rec.Created); err != nil {
		return store.ParseRecord{}, err
	}
	if err := convertFromDB_UUID(ownerStr, &rec.Owner); err != nil {
		return store.ParseRecord{}, err
	}

	return rec, nil
}

func (r *parseRepo) Close() error { return nil }
