package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// RedisStore shares counters between instances. Each window key expires
// after three windows so Redis handles eviction.
type RedisStore struct {
	client rueidis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, addr string, prefix string) (*RedisStore, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:   []string{addr},
		MaxFlushDelay: 100 * time.Microsecond,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: failed to create client: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix), nil
}

func NewRedisStoreWithClient(client rueidis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Increment(ctx context.Context, key string, windowIndex int64, windowSeconds int64) (int64, error) {
	fullKey := s.prefix + windowKey(key, windowIndex)

	results := s.client.DoMulti(ctx,
		s.client.B().Incr().Key(fullKey).Build(),
		s.client.B().Expire().Key(fullKey).Seconds(windowSeconds*3).Build(),
	)
	count, err := results[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	if err := results[1].Error(); err != nil {
		return 0, fmt.Errorf("redis expire: %w", err)
	}
	return count, nil
}

func (s *RedisStore) Size(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Del().Key(keys...).Build()).Error(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() {
	s.client.Close()
}

func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.Do(ctx, s.client.B().Keys().Pattern(s.prefix+"*").Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("redis keys: %w", err)
	}
	return keys, nil
}
