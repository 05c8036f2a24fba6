// Package storage implements durable session storage drivers.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultNamespace prefixes every key when no namespace is configured
const DefaultNamespace = "catalog:"

// Options carries the non-config dependencies of the drivers
type Options struct {
	Logger  *zap.Logger
	Tracing bool // register otelgorm on SQL drivers
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Open returns the driver selected by cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig, redisCfg config.RedisConfig, opts Options) (identity.SessionStorage, error) {
	opts = opts.withDefaults()
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	switch cfg.Driver {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path, ns, opts)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN, ns, opts)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr(),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return NewRedisStorage(client, ns), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
