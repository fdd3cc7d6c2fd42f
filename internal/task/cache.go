package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "task:"

// Cache is a Redis read-through cache for single-task lookups. A nil *Cache
// is valid and disables caching entirely.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, id uuid.UUID) (Task, bool) {
	if c == nil {
		return Task{}, false
	}

	data, err := c.client.Get(ctx, cacheKeyPrefix+id.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("cache get failed", slog.String("task_id", id.String()), slog.Any("error", err))
		}
		return Task{}, false
	}

	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		slog.Warn("cache entry corrupted", slog.String("task_id", id.String()), slog.Any("error", err))
		return Task{}, false
	}

	return t, true
}

func (c *Cache) Set(ctx context.Context, t Task) {
	if c == nil {
		return
	}

	data, err := json.Marshal(t)
	if err != nil {
		slog.Warn("cache marshal failed", slog.String("task_id", t.ID.String()), slog.Any("error", err))
		return
	}

	if err := c.client.Set(ctx, cacheKeyPrefix+t.ID.String(), data, c.ttl).Err(); err != nil {
		slog.Warn("cache set failed", slog.String("task_id", t.ID.String()), slog.Any("error", err))
	}
}

func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) {
	if c == nil {
		return
	}

	if err := c.client.Del(ctx, cacheKeyPrefix+id.String()).Err(); err != nil {
		slog.Warn("cache invalidate failed", slog.String("task_id", id.String()), slog.Any("error", err))
	}
}
