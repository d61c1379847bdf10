package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/todobot/internal/domain"
	"github.com/m3rciful/todobot/internal/logger"
	"log/slog"
)

// TodoCache keeps per-user todo listings in Redis so repeated page renders
// do not hit Postgres. Entries are invalidated on every create and
// completion, and expire after the configured TTL regardless.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Options configures the Redis connection for the cache.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// New connects to Redis and verifies connectivity.
func New(ctx context.Context, opts Options) (*TodoCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TodoCache{rdb: rdb, ttl: ttl}, nil
}

// Close releases the Redis connection.
func (c *TodoCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func listKey(userID int64) string {
	return "todos:list:" + strconv.FormatInt(userID, 10)
}

// GetList returns the cached listing for a user, or nil on miss.
func (c *TodoCache) GetList(ctx context.Context, userID int64) ([]domain.Todo, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, listKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var todos []domain.Todo
	if err := json.Unmarshal(raw, &todos); err != nil {
		// Corrupt entry: drop it and fall back to the store.
		_ = c.rdb.Del(ctx, listKey(userID)).Err()
		return nil, nil
	}
	return todos, nil
}

// SetList stores a listing snapshot with the configured TTL.
func (c *TodoCache) SetList(ctx context.Context, userID int64, todos []domain.Todo) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(todos)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(userID), raw, c.ttl).Err()
}

// Invalidate drops the cached listing for a user after a mutation.
func (c *TodoCache) Invalidate(ctx context.Context, userID int64) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, listKey(userID)).Err(); err != nil {
		logger.Cache.Warn("cache invalidate failed",
			slog.String("event", "cache.invalidate"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}
