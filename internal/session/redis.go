package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// keyPrefix namespaces session keys so the same redis database can be shared
// with other uses without collisions.
const keyPrefix = "session:"

// RedisStore is a Store backed by redis. Sessions survive server restarts
// and are shared across processes; redis expires the keys itself via the
// per-key TTL, so there is nothing to sweep.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection.
//
// redisURL is a standard redis URL, e.g. "redis://localhost:6379/0" or
// "redis://:password@host:6379/1".
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session: invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: connecting to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Get(ctx context.Context, id string) (int64, error) {
	val, err := s.client.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, fmt.Errorf("session: redis get: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Corrupt value — treat the session as gone and clear it.
		s.client.Del(ctx, keyPrefix+id)
		return 0, ErrNoSession
	}

	return userID, nil
}

func (s *RedisStore) Set(ctx context.Context, id string, userID int64, ttl time.Duration) error {
	// SET with expiry in one round trip — redis handles the TTL from here.
	if err := s.client.Set(ctx, keyPrefix+id, strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
