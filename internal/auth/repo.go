package auth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/southern-apparels/sa-erp/internal/access"
)

// Store caches user profiles by bearer token.
type Store interface {
	Get(ctx context.Context, token string) (*access.User, error)
	Put(ctx context.Context, token string, user *access.User) error
	Delete(ctx context.Context, token string) error
}

// ErrSessionNotFound is returned when no profile is cached for the token.
var ErrSessionNotFound = errors.New("auth: session not found")

// RedisStore keeps profiles in Redis. Keys are hashed so raw tokens never reach Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs the store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// SessionKey derives the Redis key of a token.
func SessionKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

// Get loads a cached profile.
func (s *RedisStore) Get(ctx context.Context, token string) (*access.User, error) {
	if s == nil || s.client == nil {
		return nil, ErrSessionNotFound
	}
	payload, err := s.client.Get(ctx, SessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var user access.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Put stores a profile for the session TTL.
func (s *RedisStore) Put(ctx context.Context, token string, user *access.User) error {
	if s == nil || s.client == nil {
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, SessionKey(token), data, s.ttl).Err()
}

// Delete forgets a profile.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if s == nil || s.client == nil {
		return nil
	}
	err := s.client.Del(ctx, SessionKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

var _ Store = (*RedisStore)(nil)
