package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "regpulse/internal/platform/redis"
)

// Cache keeps resolved tables in Redis for a TTL. It is strictly an
// accelerator: every failure is logged and treated as a miss, so a dead
// Redis never fails a query.
type Cache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) Get(ctx context.Context, key string) (*Table, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.WarnContext(ctx, "query cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var table Table
	if err := json.Unmarshal(raw, &table); err != nil {
		c.logger.WarnContext(ctx, "query cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &table, true
}

func (c *Cache) Set(ctx context.Context, key string, table *Table) {
	raw, err := json.Marshal(table)
	if err != nil {
		c.logger.WarnContext(ctx, "query cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "query cache write failed", "key", key, "error", err)
	}
}
