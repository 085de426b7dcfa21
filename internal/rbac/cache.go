package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "rbac:cache:version"

// Cache stores resolved per-user permission sets in Redis. Entries embed a
// global version in their key; Bump increments the version so every stale
// entry becomes unreachable at once. Bump runs synchronously with the role or
// assignment write that triggered it, favoring correctness over hit rate.
// A nil client degrades to a pass-through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with the given entry TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func (c *Cache) userKey(ctx context.Context, userID int64) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rbac:user:%d:permissions:%d", userID, ver), nil
}

// GetUser returns the cached effective permission set for a user, if present.
func (c *Cache) GetUser(ctx context.Context, userID int64) ([]string, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	key, err := c.userKey(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var perms []string
	if err := json.Unmarshal(payload, &perms); err != nil {
		return nil, false, err
	}
	return perms, true, nil
}

// SetUser stores the effective permission set for a user under the current version.
func (c *Cache) SetUser(ctx context.Context, userID int64, perms []string) error {
	if c == nil || c.client == nil {
		return nil
	}
	key, err := c.userKey(ctx, userID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(perms)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Bump invalidates every cached permission set by incrementing the global version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
