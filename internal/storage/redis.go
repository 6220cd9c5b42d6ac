package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// riftbattle:state:{profile_id}:{key} -> serialized store
	keyProfileState = "riftbattle:state:%s:%s"

	ttlProfileState = 30 * 24 * time.Hour
)

type RedisStore struct {
	rdb *redis.Client
}

func OpenRedis(ctx context.Context, addr string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Load also slides the entry's expiry forward, so active profiles never
// lose their state.
func (s *RedisStore) Load(ctx context.Context, profileID, key string) ([]byte, error) {
	k := fmt.Sprintf(keyProfileState, profileID, key)
	value, err := s.rdb.GetEx(ctx, k, ttlProfileState).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return value, nil
}

func (s *RedisStore) Save(ctx context.Context, profileID, key string, value []byte) error {
	k := fmt.Sprintf(keyProfileState, profileID, key)
	if err := s.rdb.Set(ctx, k, value, ttlProfileState).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, profileID, key string) error {
	k := fmt.Sprintf(keyProfileState, profileID, key)
	if err := s.rdb.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
