package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/m3rciful/todobot/internal/cache"
	"github.com/m3rciful/todobot/internal/domain"
	"github.com/m3rciful/todobot/internal/logger"
	"log/slog"
)

// TodoStore is the persistence surface required by the todo service.
type TodoStore interface {
	Create(ctx context.Context, userID int64, text string, due time.Time) (domain.Todo, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Todo, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	MarkDone(ctx context.Context, id int64) (domain.Todo, error)
}

// TodoService creates, lists, and completes todo items. A nil cache
// disables caching entirely.
type TodoService struct {
	store TodoStore
	users *UserService
	cache *cache.TodoCache
	sf    singleflight.Group

	now func() time.Time
}

// NewTodoService wires the store, the user service (for the session side
// effect of creation), and the optional list cache.
func NewTodoService(store TodoStore, users *UserService, c *cache.TodoCache) *TodoService {
	return &TodoService{
		store: store,
		users: users,
		cache: c,
		now:   time.Now,
	}
}

// Create inserts a pending todo due in seven days and closes any open
// todo session on the same user: a continuation that reaches creation is
// satisfied by definition.
func (s *TodoService) Create(ctx context.Context, userID int64, text string) (domain.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Todo{}, ErrEmptyText
	}

	due := s.now().Add(domain.DefaultDueIn)
	t, err := s.store.Create(ctx, userID, text, due)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("create todo: %w", err)
	}

	// The insert and the session clear form one logical unit; if the clear
	// fails the todo still exists, so log and keep going rather than
	// reporting a creation failure.
	if err := s.users.CloseSession(ctx, userID, domain.CommandTodo); err != nil {
		logger.Error(ctx, "service.todos", "session.close.failed",
			slog.Int64("user_id", userID),
			slog.Int64("todo_id", t.ID),
			slog.String("err", err.Error()),
		)
	}
	s.invalidate(ctx, userID)

	logger.Info(ctx, "service.todos", "todo.created",
		slog.Int64("user_id", userID),
		slog.Int64("todo_id", t.ID),
		slog.Time("due", t.DueDate),
	)
	return t, nil
}

// ListOrdered returns all of the user's todos ascending by due date,
// insertion order breaking ties. Served from cache when possible.
func (s *TodoService) ListOrdered(ctx context.Context, userID int64) ([]domain.Todo, error) {
	if s.cache == nil {
		return s.store.ListByUser(ctx, userID)
	}

	key := "list:" + strconv.FormatInt(userID, 10)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if todos, err := s.cache.GetList(ctx, userID); err == nil && todos != nil {
			logger.Debug(ctx, "service.todos", "list",
				slog.Int64("user_id", userID),
				slog.String("cache", "hit"),
			)
			return todos, nil
		}
		todos, err := s.store.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetList(ctx, userID, todos)
		return todos, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Todo), nil
}

// Count returns the number of todos owned by the user.
func (s *TodoService) Count(ctx context.Context, userID int64) (int, error) {
	return s.store.CountByUser(ctx, userID)
}

// MarkDone transitions a todo to done. Completing an already-done todo is
// a safe no-op; a missing id yields ErrNotFound and no mutation.
func (s *TodoService) MarkDone(ctx context.Context, id int64) (domain.Todo, error) {
	t, err := s.store.MarkDone(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Todo{}, ErrNotFound
		}
		return domain.Todo{}, err
	}
	s.invalidate(ctx, t.UserID)

	logger.Info(ctx, "service.todos", "todo.done",
		slog.Int64("user_id", t.UserID),
		slog.Int64("todo_id", t.ID),
	)
	return t, nil
}

func (s *TodoService) invalidate(ctx context.Context, userID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}
