// Package listcache keeps backend list payloads in Redis under versioned keys.
package listcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix  = "listcache"
	versionKey = "listcache:version"
)

// Loader produces the JSON payload for a missing key.
type Loader func(ctx context.Context) (json.RawMessage, error)

// Cache wraps Redis with a global version so a single bump drops every list.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// New instantiates the cache helper. A nil client turns every Fetch into a loader call.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client backs the cache.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func (c *Cache) redisKey(ctx context.Context, key string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s", keyPrefix, ver, key), nil
}

// Fetch returns the cached payload for key, calling loader once per key across
// concurrent callers when the entry is missing. dest may be nil.
func (c *Cache) Fetch(ctx context.Context, key string, dest any, loader Loader) (json.RawMessage, error) {
	if loader == nil {
		return nil, errors.New("listcache: loader required")
	}
	if !c.Enabled() {
		raw, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return raw, decode(raw, dest)
	}

	rkey, err := c.redisKey(ctx, key)
	if err != nil {
		return nil, err
	}
	payload, err := c.client.Get(ctx, rkey).Bytes()
	if err == nil {
		return payload, decode(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	v, err, _ := c.group.Do(rkey, func() (any, error) {
		// Shared by every waiter, so one caller going away must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)
		raw, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(loadCtx, rkey, []byte(raw), c.ttl).Err(); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	raw := v.(json.RawMessage)
	return raw, decode(raw, dest)
}

// Store overwrites the entry for key.
func (c *Cache) Store(ctx context.Context, key string, value json.RawMessage) error {
	if !c.Enabled() {
		return nil
	}
	rkey, err := c.redisKey(ctx, key)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, rkey, []byte(value), c.ttl).Err()
}

// Invalidate drops the entries for keys under the current version.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return err
	}
	rkeys := make([]string, 0, len(keys))
	for _, key := range keys {
		rkeys = append(rkeys, fmt.Sprintf("%s:%d:%s", keyPrefix, ver, key))
	}
	return c.client.Del(ctx, rkeys...).Err()
}

// Bump invalidates every list by incrementing the global version.
func (c *Cache) Bump(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	return c.client.Incr(ctx, versionKey).Result()
}

// Keys lists the entries stored under the current version.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	if !c.Enabled() {
		return nil, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%s:%d:", keyPrefix, ver)
	var keys []string
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), prefix))
	}
	return keys, iter.Err()
}

func decode(raw json.RawMessage, dest any) error {
	if dest == nil {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
