package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed KV implementation. Suitable for distributed
// deployments where several processes share summary state. Entries are
// stored as JSON values under a configurable key prefix.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "promptfit:"
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       cfg.TTL,
	}, nil
}

// NewRedisStoreFromClient wraps an existing client; used by tests.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "promptfit:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

var _ KV = (*RedisStore)(nil)

// Close closes the store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if the store is healthy.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(key string) string {
	return s.keyPrefix + "kv:" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &e, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	if key == "" {
		return ErrInvalidInput
	}

	now := time.Now()
	entry := Entry{
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  metadata,
	}

	// Preserve CreatedAt across overwrites.
	if old, err := s.Get(ctx, key); err == nil {
		entry.CreatedAt = old.CreatedAt
	} else if err != ErrNotFound {
		return err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	return s.client.Set(ctx, s.key(key), payload, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
