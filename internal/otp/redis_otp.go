package otp

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps codes in Redis so they survive restarts and are
// shared across replicas. Expiry rides on the native key TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStore{client: client}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Put(ctx context.Context, email string, code string, ttl time.Duration) error {
	return s.client.Set(ctx, redisKey(email), code, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, email string) (string, bool, error) {
	val, err := s.client.Get(ctx, redisKey(email)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, redisKey(email)).Err()
}

func redisKey(email string) string {
	return "otp:" + normalizeKey(email)
}
