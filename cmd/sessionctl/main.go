package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/infrastructure/config"
	"github.com/erp/catalog-console/internal/infrastructure/logger"
	"github.com/erp/catalog-console/internal/infrastructure/migration"
	"github.com/erp/catalog-console/internal/infrastructure/storage"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command {
	case "show", "clear":
		st, err := storage.Open(ctx, cfg.Storage, cfg.Redis, storage.Options{Logger: log})
		if err != nil {
			log.Fatal("Failed to open session storage", zap.Error(err))
		}
		defer func() { _ = st.Close() }()

		if command == "show" {
			if err := show(ctx, st); err != nil {
				log.Fatal("Failed to read session", zap.Error(err))
			}
			return
		}
		if err := st.Delete(ctx, identity.CredentialKey, identity.UserKey); err != nil {
			log.Fatal("Failed to clear session", zap.Error(err))
		}
		log.Info("Stored session cleared", zap.String("driver", cfg.Storage.Driver))

	case "migrate":
		if cfg.Storage.Driver != "postgres" {
			log.Fatal("Migrations apply to the postgres driver only", zap.String("driver", cfg.Storage.Driver))
		}
		if len(args) < 2 {
			log.Fatal("Migrate subcommand required. Usage: sessionctl migrate up|down|version|force <version>")
		}
		runMigration(log, cfg.Storage.DSN, args[1:])

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func show(ctx context.Context, st identity.SessionStorage) error {
	raw, ok, err := st.Get(ctx, identity.UserKey)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("user:       (none)")
	} else {
		fmt.Println("user:      ", raw)
	}

	token, ok, err := st.Get(ctx, identity.CredentialKey)
	if err != nil {
		return err
	}
	if !ok || token == "" {
		fmt.Println("credential: (none)")
		return nil
	}

	info := identity.DescribeCredential(token)
	switch {
	case info.Opaque:
		fmt.Println("credential: present (opaque)")
	case info.ExpiresAt != nil:
		state := "valid"
		if info.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Printf("credential: present, subject %q, expires %s (%s)\n",
			info.Subject, info.ExpiresAt.Format(time.RFC3339), state)
	default:
		fmt.Printf("credential: present, subject %q, no expiry\n", info.Subject)
	}
	return nil
}

func runMigration(log *zap.Logger, dsn string, args []string) {
	m, err := migration.Open(dsn, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() { _ = m.Close() }()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: sessionctl migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version - use with caution!")
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	default:
		log.Fatal("Unknown migrate subcommand", zap.String("subcommand", args[0]))
	}
}

func printUsage() {
	fmt.Println(`Catalog console session tool

Usage:
  sessionctl [flags] <command> [arguments]

Commands:
  show                  Print the stored operator and credential summary
  clear                 Remove the stored session (forces a fresh login)
  migrate up            Apply pending postgres session migrations
  migrate down          Roll back the postgres session migrations
  migrate version       Show current migration version
  migrate force <n>     Force set migration version (use with caution)

Flags:
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  CATALOG_STORAGE_DRIVER, CATALOG_STORAGE_PATH, CATALOG_STORAGE_DSN,
  CATALOG_REDIS_HOST, CATALOG_REDIS_PORT`)
}
