package integration

import (
	"context"
	"testing"

	"github.com/erp/catalog-console/internal/application/session"
	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSessionStorage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := NewTestDB(t)
	ctx := context.Background()

	t.Run("set get delete", func(t *testing.T) {
		st := db.OpenStorage(t, "crud:")

		_, ok, err := st.Get(ctx, identity.CredentialKey)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, st.Set(ctx, identity.CredentialKey, "tok-1"))
		require.NoError(t, st.Set(ctx, identity.CredentialKey, "tok-2"))
		v, ok, err := st.Get(ctx, identity.CredentialKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok-2", v)

		require.NoError(t, st.Delete(ctx, identity.CredentialKey, identity.UserKey))
		_, ok, err = st.Get(ctx, identity.CredentialKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		a := db.OpenStorage(t, "a:")
		b := db.OpenStorage(t, "b:")

		require.NoError(t, a.Set(ctx, identity.CredentialKey, "only-a"))
		_, ok, err := b.Get(ctx, identity.CredentialKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("session survives a restart", func(t *testing.T) {
		first := session.NewStore(db.OpenStorage(t, "restart:"))
		require.NoError(t, first.Login(ctx, identity.NewUser(map[string]any{"id": float64(7), "name": "Ada"}), "tok-restart"))

		second := session.NewStore(db.OpenStorage(t, "restart:"))
		require.NoError(t, second.Restore(ctx))

		assert.True(t, second.IsAuthenticated(ctx))
		assert.Equal(t, "Ada", second.User().Name())
		assert.Equal(t, "tok-restart", second.Credential(ctx))
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		m, err := migration.Open(db.DSN, nil)
		require.NoError(t, err)
		defer func() { _ = m.Close() }()

		require.NoError(t, m.Up())
		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.NotZero(t, version)
		assert.False(t, dirty)
	})
}
