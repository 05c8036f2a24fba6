package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps the session in Redis under namespaced keys
type RedisStorage struct {
	client    *redis.Client
	namespace string
}

var _ identity.SessionStorage = (*RedisStorage)(nil)

// NewRedisStorage creates a store over an existing client
func NewRedisStorage(client *redis.Client, namespace string) *RedisStorage {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisStorage{client: client, namespace: namespace}
}

// Get implements identity.SessionStorage
func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.namespace+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session key %q: %w", key, err)
	}
	return v, true, nil
}

// Set implements identity.SessionStorage. Keys never expire; the backend
// decides when a credential stops working.
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write session key %q: %w", key, err)
	}
	return nil
}

// Delete implements identity.SessionStorage
func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.namespace + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}

// Close implements identity.SessionStorage
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
