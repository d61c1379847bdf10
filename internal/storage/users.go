package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/todobot/internal/domain"
)

// UserRepo persists users and their conversational session slot.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo wraps the shared database handle.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetOrCreate inserts the user if absent and reports whether a row was created.
// A freshly created user starts with no active command.
func (r *UserRepo) GetOrCreate(ctx context.Context, id int64, username string) (domain.User, bool, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `
		INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, username, active_command`,
		id, username,
	)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, false, fmt.Errorf("insert user: %w", err)
	}

	u, err = r.Get(ctx, id)
	if err != nil {
		return domain.User{}, false, err
	}
	return u, false, nil
}

// Get fetches a single user; sql.ErrNoRows passes through for the caller to map.
func (r *UserRepo) Get(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, username, active_command
		FROM users
		WHERE id = $1`,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// Upsert inserts or renames a user record, preserving any open session.
func (r *UserRepo) Upsert(ctx context.Context, id int64, username string) (domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `
		INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, active_command`,
		id, username,
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

// List returns all known users ordered by identifier.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.SelectContext(ctx, &users, `
		SELECT id, username, active_command
		FROM users
		ORDER BY id`,
	); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

// SetActiveCommand opens a session by writing the continuation tag.
func (r *UserRepo) SetActiveCommand(ctx context.Context, id int64, cmd domain.ActiveCommand) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET active_command = $2 WHERE id = $1`,
		id, cmd,
	)
	if err != nil {
		return fmt.Errorf("set active_command: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClearActiveCommand is an atomic compare-and-clear: the slot is reset to
// NULL only when it still holds the expected tag, so a stale clear cannot
// erase a session opened in between. It reports whether a row changed.
func (r *UserRepo) ClearActiveCommand(ctx context.Context, id int64, expected domain.ActiveCommand) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET active_command = NULL
		WHERE id = $1 AND active_command = $2`,
		id, expected,
	)
	if err != nil {
		return false, fmt.Errorf("clear active_command: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("clear active_command: %w", err)
	}
	return n > 0, nil
}
