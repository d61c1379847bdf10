package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/m3rciful/todobot/internal/domain"
	"github.com/m3rciful/todobot/internal/logger"
	"log/slog"
)

// UserStore is the persistence surface required by the user service.
type UserStore interface {
	GetOrCreate(ctx context.Context, id int64, username string) (domain.User, bool, error)
	Get(ctx context.Context, id int64) (domain.User, error)
	Upsert(ctx context.Context, id int64, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetActiveCommand(ctx context.Context, id int64, cmd domain.ActiveCommand) error
	ClearActiveCommand(ctx context.Context, id int64, expected domain.ActiveCommand) (bool, error)
}

// UserService owns user records and the per-user session slot.
type UserService struct {
	store UserStore
}

// NewUserService wires the store.
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// GetOrCreate returns the user for a Telegram id, inserting on first contact.
func (s *UserService) GetOrCreate(ctx context.Context, id int64, username string) (domain.User, bool, error) {
	u, created, err := s.store.GetOrCreate(ctx, id, username)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get or create user: %w", err)
	}
	if created {
		logger.Info(ctx, "service.users", "user.created",
			slog.Int64("user_id", u.ID),
			slog.String("username", logger.SanitizeLimit(u.Username, 64)),
		)
	}
	return u, created, nil
}

// Get returns the user or ErrNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (domain.User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// Insert creates or renames a user record directly (the /post_users surface).
func (s *UserService) Insert(ctx context.Context, id int64, username string) (domain.User, error) {
	u, err := s.store.Upsert(ctx, id, username)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	logger.Info(ctx, "service.users", "user.inserted",
		slog.Int64("user_id", u.ID),
		slog.String("username", logger.SanitizeLimit(u.Username, 64)),
	)
	return u, nil
}

// List returns all known users.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.store.List(ctx)
}

// OpenSession marks the user as awaiting a continuation for cmd.
func (s *UserService) OpenSession(ctx context.Context, id int64, cmd domain.ActiveCommand) error {
	if err := s.store.SetActiveCommand(ctx, id, cmd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("open session: %w", err)
	}
	logger.Debug(ctx, "service.users", "session.open",
		slog.Int64("user_id", id),
		slog.String("payload", string(cmd)),
	)
	return nil
}

// CloseSession atomically clears the session slot if it still holds the
// expected tag. Closing an already-clear session is a no-op.
func (s *UserService) CloseSession(ctx context.Context, id int64, expected domain.ActiveCommand) error {
	cleared, err := s.store.ClearActiveCommand(ctx, id, expected)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if cleared {
		logger.Debug(ctx, "service.users", "session.close",
			slog.Int64("user_id", id),
			slog.String("payload", string(expected)),
		)
	}
	return nil
}
