package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/infrastructure/logger"
	"github.com/erp/catalog-console/internal/infrastructure/migration"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// SessionEntry is one persisted session key
type SessionEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:191"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time
}

// TableName implements gorm's Tabler
func (SessionEntry) TableName() string {
	return "session_entries"
}

// GormStorage persists the session in a SQL table through GORM
type GormStorage struct {
	db        *gorm.DB
	namespace string
}

var _ identity.SessionStorage = (*GormStorage)(nil)

// NewGormStorage wraps an open GORM connection. The session_entries table
// must already exist.
func NewGormStorage(db *gorm.DB, namespace string) *GormStorage {
	return &GormStorage{db: db, namespace: namespace}
}

// OpenSQLite opens (creating if needed) a sqlite session database at path
func OpenSQLite(ctx context.Context, path, namespace string, opts Options) (*GormStorage, error) {
	opts = opts.withDefaults()
	db, err := openGorm(sqlite.Open(path), "sqlite", opts)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.WithContext(ctx).AutoMigrate(&SessionEntry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create session table: %w", err)
	}
	opts.Logger.Info("session storage opened", zap.String("driver", "sqlite"), zap.String("path", path))
	return NewGormStorage(db, namespace), nil
}

// OpenPostgres connects to dsn and applies the embedded session migrations
func OpenPostgres(ctx context.Context, dsn, namespace string, opts Options) (*GormStorage, error) {
	opts = opts.withDefaults()
	db, err := openGorm(postgres.Open(dsn), "postgresql", opts)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateUp(dsn, opts.Logger); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	opts.Logger.Info("session storage opened", zap.String("driver", "postgres"))
	return NewGormStorage(db, namespace), nil
}

func migrateUp(dsn string, log *zap.Logger) error {
	m, err := migration.Open(dsn, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

func openGorm(dialector gorm.Dialector, system string, opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(opts.Logger, gormLevel(opts), 0),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if opts.Tracing {
		plugin := otelgorm.NewPlugin(otelgorm.WithDBName(system), otelgorm.WithoutQueryVariables())
		if err := db.Use(plugin); err != nil {
			return nil, fmt.Errorf("failed to register otelgorm: %w", err)
		}
	}
	return db, nil
}

func gormLevel(opts Options) gormlogger.LogLevel {
	if opts.Logger.Core().Enabled(zap.DebugLevel) {
		return logger.GormLevel("debug")
	}
	return logger.GormLevel("warn")
}

// Get implements identity.SessionStorage
func (s *GormStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var entry SessionEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", s.namespace+key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session key %q: %w", key, err)
	}
	return entry.Value, true, nil
}

// Set implements identity.SessionStorage
func (s *GormStorage) Set(ctx context.Context, key, value string) error {
	entry := SessionEntry{Key: s.namespace + key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write session key %q: %w", key, err)
	}
	return nil
}

// Delete implements identity.SessionStorage
func (s *GormStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.namespace + k
	}
	if err := s.db.WithContext(ctx).Where("entry_key IN ?", full).Delete(&SessionEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}

// Close implements identity.SessionStorage
func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
