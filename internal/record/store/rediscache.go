package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"veil/internal/disclosure"
	id "veil/pkg/domain"
)

// snapshotStore is the store surface the cache decorates.
type snapshotStore interface {
	Replace(ctx context.Context, subject id.SubjectID, values map[string][]byte) (*disclosure.Record, error)
	Get(ctx context.Context, subject id.SubjectID) (*disclosure.Record, error)
	Delete(ctx context.Context, subject id.SubjectID) error
}

// RedisCache is a read-through decorator over a snapshot store. Cache
// failures degrade to the inner store; a cold or broken cache must never
// change results, only latency.
type RedisCache struct {
	inner  snapshotStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(inner snapshotStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(subject id.SubjectID) string {
	return "veil:record:" + subject.String()
}

// Replace invalidates before writing so a racing reader re-fetches rather
// than serving the old snapshot past the swap, then re-primes the cache with
// the stored result.
func (c *RedisCache) Replace(ctx context.Context, subject id.SubjectID, values map[string][]byte) (*disclosure.Record, error) {
	if err := c.client.Del(ctx, cacheKey(subject)).Err(); err != nil {
		c.logger.WarnContext(ctx, "record cache invalidation failed", "error", err)
	}
	record, err := c.inner.Replace(ctx, subject, values)
	if err != nil {
		return nil, err
	}
	c.prime(ctx, record)
	return record, nil
}

func (c *RedisCache) Get(ctx context.Context, subject id.SubjectID) (*disclosure.Record, error) {
	raw, err := c.client.Get(ctx, cacheKey(subject)).Bytes()
	if err == nil {
		var record disclosure.Record
		if err := json.Unmarshal(raw, &record); err == nil {
			return &record, nil
		}
		// Corrupt entry: drop it and fall through to the store of record.
		_ = c.client.Del(ctx, cacheKey(subject)).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "record cache read failed", "error", err)
	}

	record, err := c.inner.Get(ctx, subject)
	if err != nil {
		// Sentinel errors (not found) pass through untouched.
		return nil, err
	}
	c.prime(ctx, record)
	return record, nil
}

func (c *RedisCache) Delete(ctx context.Context, subject id.SubjectID) error {
	if err := c.client.Del(ctx, cacheKey(subject)).Err(); err != nil {
		c.logger.WarnContext(ctx, "record cache invalidation failed", "error", err)
	}
	return c.inner.Delete(ctx, subject)
}

func (c *RedisCache) prime(ctx context.Context, record *disclosure.Record) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(record.Subject), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "record cache prime failed", "error", err)
	}
}
