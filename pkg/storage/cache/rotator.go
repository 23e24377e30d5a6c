package cache

import (
	"context"
	"fmt"

	"jobradar/pkg/searchapi"
)

// KeyRotator hands out keys from a fixed pool in round-robin order, with
// the cursor held in Redis so it survives the CLI's discrete process
// invocations (spec.md §6) rather than resetting to index 0 every run.
type KeyRotator struct {
	cache *Cache
	name  string
	keys  []string
}

// NewKeyRotator builds a rotator over keys, keyed in Redis under name so
// independent pools (e.g. "llm" vs "search") don't share a cursor.
func NewKeyRotator(c *Cache, name string, keys []string) *KeyRotator {
	return &KeyRotator{cache: c, name: name, keys: keys}
}

// NextKey advances the shared cursor and returns the key at that position.
func (r *KeyRotator) NextKey(ctx context.Context) (string, error) {
	if len(r.keys) == 0 {
		return "", fmt.Errorf("cache: key rotator %q has no keys configured", r.name)
	}
	n, err := r.cache.client.Incr(ctx, rotatorCursorKey+r.name).Result()
	if err != nil {
		return "", fmt.Errorf("cache: advance rotator cursor: %w", err)
	}
	idx := int((n - 1) % int64(len(r.keys)))
	if idx < 0 {
		idx += len(r.keys)
	}
	return r.keys[idx], nil
}

var _ searchapi.KeyRotator = (*KeyRotator)(nil)
