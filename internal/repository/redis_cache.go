package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"BPOrganizer.api/internal/models"
	"github.com/go-redis/redis/v8"
)

const (
	statusKey  = "bp-organizer:status"
	summaryKey = "bp-organizer:summary"
)

// KV is the slice of Redis the snapshot cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// RedisKV adapts a go-redis client to KV. Missing keys map to ErrSnapshotMiss.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects to Redis and checks the connection.
func NewRedisKV(ctx context.Context, addr, password string, db int) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return &RedisKV{client: client}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSnapshotMiss
	}
	return v, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the Redis connection.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// RedisSnapshotCache stores the latest status and summary as JSON.
type RedisSnapshotCache struct {
	kv  KV
	ttl time.Duration
}

// NewRedisSnapshotCache creates a cache whose entries expire after ttl (0 keeps them).
func NewRedisSnapshotCache(kv KV, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{kv: kv, ttl: ttl}
}

func (c *RedisSnapshotCache) SaveStatus(ctx context.Context, status models.StatusView) error {
	return c.save(ctx, statusKey, status)
}

func (c *RedisSnapshotCache) LoadStatus(ctx context.Context) (models.StatusView, error) {
	var status models.StatusView
	err := c.load(ctx, statusKey, &status)
	return status, err
}

func (c *RedisSnapshotCache) SaveSummary(ctx context.Context, summary models.SummaryView) error {
	return c.save(ctx, summaryKey, summary)
}

func (c *RedisSnapshotCache) LoadSummary(ctx context.Context) (models.SummaryView, error) {
	var summary models.SummaryView
	err := c.load(ctx, summaryKey, &summary)
	return summary, err
}

func (c *RedisSnapshotCache) save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.kv.Set(ctx, key, string(b), c.ttl); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (c *RedisSnapshotCache) load(ctx context.Context, key string, v any) error {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSnapshotMiss) {
			return ErrSnapshotMiss
		}
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
