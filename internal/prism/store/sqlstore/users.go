package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/store"
)

// userRepo is a store.UserRepository backed by a "users" table.
type userRepo struct {
	db *sql.DB
}

func newUserRepo(db *sql.DB) (*userRepo, error) {
	r := &userRepo{db: db}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *userRepo) init() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT NOT NULL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role INTEGER NOT NULL,
			created INTEGER NOT NULL,
			last_login_time INTEGER NOT NULL,
			last_logout_time INTEGER NOT NULL
		)
	`)
	return wrapDBError(err)
}

func (r *userRepo) Create(ctx context.Context, rec store.UserRecord) (store.UserRecord, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return store.UserRecord{}, err
	}
	rec.ID = id
	rec.Created = time.Now()

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO users (id, username, password, role, created, last_login_time, last_logout_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return store.UserRecord{}, wrapDBError(err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		convertToDB_UUID(rec.ID),
		rec.Username,
		rec.Password,
		int(rec.Role),
		convertToDB_Time(rec.Created),
		convertToDB_Time(rec.LastLoginTime),
		convertToDB_Time(rec.LastLogoutTime),
	)
	if err != nil {
		return store.UserRecord{}, wrapDBError(err)
	}

	return r.GetByID(ctx, id)
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (store.UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password, role, created, last_login_time, last_logout_time
		FROM users WHERE id = ?
	`, convertToDB_UUID(id))
	return scanUserRow(row.Scan)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (store.UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password, role, created, last_login_time, last_logout_time
		FROM users WHERE username = ?
	`, username)
	return scanUserRow(row.Scan)
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, rec store.UserRecord) (store.UserRecord, error) {
	rec.ID = id

	stmt, err := r.db.PrepareContext(ctx, `
		UPDATE users SET username = ?, password = ?, role = ?, last_login_time = ?, last_logout_time = ?
		WHERE id = ?
	`)
	if err != nil {
		return store.UserRecord{}, wrapDBError(err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx,
		rec.Username,
		rec.Password,
		int(rec.Role),
		convertToDB_Time(rec.LastLoginTime),
		convertToDB_Time(rec.LastLogoutTime),
		convertToDB_UUID(id),
	)
	if err != nil {
		return store.UserRecord{}, wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.UserRecord{}, store.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *userRepo) Close() error { return nil }

func scanUserRow(scan func(dest ...any) error) (store.UserRecord, error) {
	var (
		rec                             store.UserRecord
		idStr                           string
		role                            int
		createdInt, loginInt, logoutInt int64
	)
	err := scan(&idStr, &rec.Username, &rec.Password, &role, &createdInt, &loginInt, &logoutInt)
	if err != nil {
		return store.UserRecord{}, wrapDBError(err)
	}

	if err := convertFromDB_UUID(idStr, &rec.ID); err != nil {
		return store.UserRecord{}, err
	}
	rec.Role = store.Role(role)
	if err := convertFromDB_Time(createdInt, &rec.Created); err != nil {
		return store.UserRecord{}, err
	}
	if err := convertFromDB_Time(loginInt, &rec.LastLoginTime); err != nil {
		return store.UserRecord{}, err
	}
	if err := convertFromDB_Time(logoutInt, &rec.LastLogoutTime); err != nil {
		return store.UserRecord{}, err
	}
	return rec, nil
}
