package storage

import (
	"context"
	"testing"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStorage runs the behaviour every driver must share
func exerciseStorage(t *testing.T, s identity.SessionStorage) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, identity.CredentialKey)
	require.NoError(t, err)
	assert.False(t, ok, "fresh storage has no credential")

	require.NoError(t, s.Set(ctx, identity.CredentialKey, "abc123"))
	require.NoError(t, s.Set(ctx, identity.UserKey, `{"name":"Ada"}`))

	v, ok, err := s.Get(ctx, identity.CredentialKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)

	require.NoError(t, s.Set(ctx, identity.CredentialKey, "rotated"))
	v, _, err = s.Get(ctx, identity.CredentialKey)
	require.NoError(t, err)
	assert.Equal(t, "rotated", v)

	require.NoError(t, s.Delete(ctx, identity.UserKey, identity.CredentialKey, "missing"))
	_, ok, err = s.Get(ctx, identity.UserKey)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.Get(ctx, identity.CredentialKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx))
}
