package idempotency

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "hookstack:dedup:"

// RedisStore implements duplicate suppression with a single atomic
// check-and-set (SET NX with TTL). Keys expire so the store stays
// bounded without a cleanup job.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis url")
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

// CheckAndSet reports whether this call was the first to mark key as
// processed within the TTL window.
func (s *RedisStore) CheckAndSet(ctx context.Context, key string) (bool, error) {
	first, err := s.client.SetNX(ctx, keyPrefix+key, 1, s.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "idempotency check-and-set failed")
	}
	return first, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
