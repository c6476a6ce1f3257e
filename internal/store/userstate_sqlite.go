package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sqliteStateRepo implements UserStateRepo on the user_states table.
type sqliteStateRepo struct {
	db *sql.DB
}

func (r *sqliteStateRepo) Get(ctx context.Context, userID string) (*UserState, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("version", "data").
		From(entsql.Table(userStatesTable)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("deleted", false),
		)).
		Query()

	var (
		version int64
		data    string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user state: %w", err)
	}

	s, err := DecodeUserState(userID, []byte(data))
	if err != nil {
		return nil, err
	}
	s.Version = version
	return s, nil
}

func (r *sqliteStateRepo) Put(ctx context.Context, s *UserState) error {
	data, err := EncodeUserState(s)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save user state: %w", err)
	}
	defer tx.Rollback()

	next, err := putTx(ctx, tx, s, string(data))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save user state: %w", err)
	}
	s.Version = next
	return nil
}

// putTx writes s if its version matches the stored row and returns the new
// version. A tombstoned row counts as missing, and recreating it continues
// from the tombstone's version.
func putTx(ctx context.Context, tx *sql.Tx, s *UserState, data string) (int64, error) {
	now := time.Now().UTC()

	query, args := entsql.Dialect(dialect.SQLite).
		Select("version", "deleted").
		From(entsql.Table(userStatesTable)).
		Where(entsql.EQ("user_id", s.UserID)).
		Query()
	var (
		stored  int64
		deleted bool
	)
	err := tx.QueryRowContext(ctx, query, args...).Scan(&stored, &deleted)
	missing := errors.Is(err, sql.ErrNoRows)
	if err != nil && !missing {
		return 0, fmt.Errorf("query user state: %w", err)
	}

	var next int64
	switch {
	case missing:
		if s.Version != 0 {
			return 0, ErrVersionConflict
		}
		next = 1
		query, args = entsql.Dialect(dialect.SQLite).
			Insert(userStatesTable).
			Columns("user_id", "version", "deleted", "allocated_on", "data", "updated_at").
			Values(s.UserID, next, false, s.CurrentDate, data, now).
			Query()
	case deleted && s.Version != 0, !deleted && s.Version != stored:
		return 0, ErrVersionConflict
	default:
		next = stored + 1
		query, args = entsql.Dialect(dialect.SQLite).
			Update(userStatesTable).
			Set("version", next).
			Set("deleted", false).
			Set("allocated_on", s.CurrentDate).
			Set("data", data).
			Set("updated_at", now).
			Where(entsql.And(
				entsql.EQ("user_id", s.UserID),
				entsql.EQ("version", stored),
			)).
			Query()
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("save user state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("save user state: %w", err)
	}
	if n == 0 {
		return 0, ErrVersionConflict
	}
	return next, nil
}

// Delete leaves a tombstone with a bumped version, so a writer holding a
// version read before the delete cannot overwrite a recreated document.
func (r *sqliteStateRepo) Delete(ctx context.Context, userID string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Update(userStatesTable).
		Add("version", 1).
		Set("deleted", true).
		Set("allocated_on", "").
		Set("data", "{}").
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("deleted", false),
		)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete user state: %w", err)
	}
	return nil
}
