// Package cache keeps rendered client profiles in Redis so the public pages
// do not hit SQLite on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Simplici0/pestdirectory/internal/directory"
)

// Cache stores full client profiles keyed by slug.
type Cache interface {
	GetProfile(ctx context.Context, slug string) (*directory.Client, bool, error)
	SetProfile(ctx context.Context, c *directory.Client) error
	Invalidate(ctx context.Context, slugs ...string) error
}

// Key returns the redis key of a profile.
func Key(slug string) string {
	return "profile:" + slug
}

// Nop is used when no redis address is configured.
type Nop struct{}

func (Nop) GetProfile(context.Context, string) (*directory.Client, bool, error) {
	return nil, false, nil
}

func (Nop) SetProfile(context.Context, *directory.Client) error { return nil }

func (Nop) Invalidate(context.Context, ...string) error { return nil }

// Redis is a Cache backed by go-redis.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis wraps an existing client. A zero ttl keeps entries until invalidated.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// Dial connects to addr and verifies the connection with a PING.
func Dial(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedis(rdb, ttl), nil
}

func (r *Redis) GetProfile(ctx context.Context, slug string) (*directory.Client, bool, error) {
	raw, err := r.rdb.Get(ctx, Key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached profile %s: %w", slug, err)
	}

	var c directory.Client
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false, fmt.Errorf("decode cached profile %s: %w", slug, err)
	}
	return &c, true, nil
}

func (r *Redis) SetProfile(ctx context.Context, c *directory.Client) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", c.Slug, err)
	}
	if err := r.rdb.Set(ctx, Key(c.Slug), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache profile %s: %w", c.Slug, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, slugs ...string) error {
	if len(slugs) == 0 {
		return nil
	}
	keys := make([]string, len(slugs))
	for i, slug := range slugs {
		keys[i] = Key(slug)
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate profiles: %w", err)
	}
	return nil
}

// Close releases the redis connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
