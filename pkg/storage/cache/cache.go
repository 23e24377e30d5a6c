// Package cache wraps the Redis-backed cross-process state the CLI surface
// needs between discrete invocations (spec.md §6's "invoked as discrete
// scripts"): the resume-text cache and the search-API key rotation
// cursor. Grounded on the teacher's pkg/storage/redis.RedisQueue (plain
// *redis.Client wrapper, Ping-on-connect) and pkg/auth.RedisAPIKeyStore
// (hash-keyed Get/Set pattern).
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	resumeKeyPrefix    = "jobradar:resume:"
	rotatorCursorKey   = "jobradar:rotator:"
	defaultResumeTTL   = 30 * 24 * time.Hour
)

type Cache struct {
	client *redis.Client
}

func New(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("cache: connect to redis: %w", err)
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// GetResumeText returns the cached resume text for a profile slug, or ok=false
// on a cache miss. The loadResume helpers in cmd/scheduler and cmd/executor
// fall back to the on-disk copy when this misses.
func (c *Cache) GetResumeText(ctx context.Context, profile string) (string, bool, error) {
	val, err := c.client.Get(ctx, resumeKeyPrefix+profile).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: get resume text: %w", err)
	}
	return val, true, nil
}

func (c *Cache) SetResumeText(ctx context.Context, profile, text string) error {
	if err := c.client.Set(ctx, resumeKeyPrefix+profile, text, defaultResumeTTL).Err(); err != nil {
		return fmt.Errorf("cache: set resume text: %w", err)
	}
	return nil
}
