package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an idle session survives in Redis.
const DefaultTTL = 30 * 24 * time.Hour

// RedisStore keeps each session value under "session:{id}:{key}". Every write
// refreshes the TTL of the written key.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A non-positive ttl selects DefaultTTL.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Scope returns the scope for sessionID.
func (s *RedisStore) Scope(sessionID string) Scope {
	return &redisScope{store: s, id: sessionID}
}

func redisKey(sessionID, key string) string {
	return "session:" + sessionID + ":" + key
}

type redisScope struct {
	store *RedisStore
	id    string
}

func (r *redisScope) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.store.client.Get(ctx, redisKey(r.id, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *redisScope) Set(ctx context.Context, key string, value []byte) error {
	return r.store.client.Set(ctx, redisKey(r.id, key), value, r.store.ttl).Err()
}

func (r *redisScope) Remove(ctx context.Context, key string) error {
	return r.store.client.Del(ctx, redisKey(r.id, key)).Err()
}
