package storage

import (
	"context"
	"testing"
	"time"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis returns a client for a local server or skips the test
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available: %v", err)
	}
	return client
}

func TestRedisStorage(t *testing.T) {
	client := newTestRedis(t)
	ns := "catalog-test:" + uuid.NewString() + ":"
	s := NewRedisStorage(client, ns)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStorage(t, s)
}

func TestRedisStorage_KeysAreNamespaced(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	ns := "catalog-test:" + uuid.NewString() + ":"
	s := NewRedisStorage(client, ns)
	t.Cleanup(func() {
		_ = s.Delete(ctx, identity.CredentialKey)
		_ = s.Close()
	})

	require.NoError(t, s.Set(ctx, identity.CredentialKey, "abc123"))

	raw, err := client.Get(ctx, ns+identity.CredentialKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "abc123", raw)
}
