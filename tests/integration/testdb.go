// Package integration runs the session storage drivers against real backing
// services started with testcontainers.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/erp/catalog-console/internal/infrastructure/storage"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

// TestDB is a disposable PostgreSQL container
type TestDB struct {
	Container testcontainers.Container
	DSN       string
}

// NewTestDB starts a PostgreSQL container and terminates it on cleanup
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("catalog_session_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	return &TestDB{Container: container, DSN: dsn}
}

// OpenStorage opens the postgres session storage, applying migrations
func (db *TestDB) OpenStorage(t *testing.T, namespace string) *storage.GormStorage {
	t.Helper()
	st, err := storage.OpenPostgres(context.Background(), db.DSN, namespace, storage.Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err, "Failed to open session storage")
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
