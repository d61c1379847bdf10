package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/todobot/internal/domain"
)

// TodoRepo persists todo items.
type TodoRepo struct {
	db *sqlx.DB
}

// NewTodoRepo wraps the shared database handle.
func NewTodoRepo(db *sqlx.DB) *TodoRepo {
	return &TodoRepo{db: db}
}

// Create inserts a pending todo and returns the stored row.
func (r *TodoRepo) Create(ctx context.Context, userID int64, text string, due time.Time) (domain.Todo, error) {
	var t domain.Todo
	err := r.db.GetContext(ctx, &t, `
		INSERT INTO todos (text, status, due_date, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, text, status, due_date, user_id`,
		text, domain.StatusPending, due, userID,
	)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's todos ordered ascending by due date with
// insertion order breaking ties.
func (r *TodoRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Todo, error) {
	var todos []domain.Todo
	if err := r.db.SelectContext(ctx, &todos, `
		SELECT id, text, status, due_date, user_id
		FROM todos
		WHERE user_id = $1
		ORDER BY due_date ASC, id ASC`,
		userID,
	); err != nil {
		return nil, fmt.Errorf("select todos: %w", err)
	}
	return todos, nil
}

// CountByUser returns the number of todos owned by the user.
func (r *TodoRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM todos WHERE user_id = $1`,
		userID,
	); err != nil {
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return n, nil
}

// MarkDone transitions a todo to done. The update matches regardless of
// the current status, so repeating the call is a safe no-op; a missing id
// surfaces as sql.ErrNoRows.
func (r *TodoRepo) MarkDone(ctx context.Context, id int64) (domain.Todo, error) {
	var t domain.Todo
	err := r.db.GetContext(ctx, &t, `
		UPDATE todos SET status = $2
		WHERE id = $1
		RETURNING id, text, status, due_date, user_id`,
		id, domain.StatusDone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Todo{}, err
		}
		return domain.Todo{}, fmt.Errorf("mark todo done: %w", err)
	}
	return t, nil
}
