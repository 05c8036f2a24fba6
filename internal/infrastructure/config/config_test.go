package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"CATALOG_APP_NAME":                 os.Getenv("CATALOG_APP_NAME"),
		"CATALOG_APP_PORT":                 os.Getenv("CATALOG_APP_PORT"),
		"CATALOG_API_BASE_URL":             os.Getenv("CATALOG_API_BASE_URL"),
		"CATALOG_API_TIMEOUT":              os.Getenv("CATALOG_API_TIMEOUT"),
		"CATALOG_STORAGE_DRIVER":           os.Getenv("CATALOG_STORAGE_DRIVER"),
		"CATALOG_STORAGE_DSN":              os.Getenv("CATALOG_STORAGE_DSN"),
		"CATALOG_STORAGE_NAMESPACE":        os.Getenv("CATALOG_STORAGE_NAMESPACE"),
		"CATALOG_UI_NOTICE_DURATION":       os.Getenv("CATALOG_UI_NOTICE_DURATION"),
		"CATALOG_LOG_LEVEL":                os.Getenv("CATALOG_LOG_LEVEL"),
		"CATALOG_TELEMETRY_SAMPLING_RATIO": os.Getenv("CATALOG_TELEMETRY_SAMPLING_RATIO"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "catalog-console", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "127.0.0.1:3000", cfg.App.Addr())
		assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
		assert.Equal(t, 15*time.Second, cfg.API.Timeout)
		assert.Equal(t, "sqlite", cfg.Storage.Driver)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, 3*time.Second, cfg.UI.NoticeDuration)
		assert.Equal(t, 2*time.Second, cfg.UI.RegisterRedirectDelay)
		assert.Equal(t, 10, cfg.HTTP.LoginAttempts)
		assert.Equal(t, time.Minute, cfg.HTTP.LoginWindow)
		assert.False(t, cfg.HTTP.HSTSEnabled)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "catalog-console", cfg.Telemetry.ServiceName)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("loads values from environment variables with CATALOG prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("CATALOG_APP_NAME", "shop-admin")
		os.Setenv("CATALOG_APP_PORT", "4000")
		os.Setenv("CATALOG_API_BASE_URL", "https://api.example.com/v1/")
		os.Setenv("CATALOG_API_TIMEOUT", "5s")
		os.Setenv("CATALOG_STORAGE_DRIVER", "memory")
		os.Setenv("CATALOG_STORAGE_NAMESPACE", "desk-1:")
		os.Setenv("CATALOG_UI_NOTICE_DURATION", "500ms")
		os.Setenv("CATALOG_LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shop-admin", cfg.App.Name)
		assert.Equal(t, "4000", cfg.App.Port)
		assert.Equal(t, "https://api.example.com/v1", cfg.API.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.API.Timeout)
		assert.Equal(t, "memory", cfg.Storage.Driver)
		assert.Equal(t, "desk-1:", cfg.Storage.Namespace)
		assert.Equal(t, 500*time.Millisecond, cfg.UI.NoticeDuration)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("rejects postgres without dsn", func(t *testing.T) {
		clearEnv()
		os.Setenv("CATALOG_STORAGE_DRIVER", "postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.dsn")
	})

	t.Run("rejects unknown storage driver", func(t *testing.T) {
		clearEnv()
		os.Setenv("CATALOG_STORAGE_DRIVER", "floppy")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "floppy")
	})

	t.Run("rejects non-http base url", func(t *testing.T) {
		clearEnv()
		os.Setenv("CATALOG_API_BASE_URL", "ftp://example.com")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv()
		os.Setenv("CATALOG_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
	})
}

func TestLoadWith_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[app]
port = "3100"

[api]
base_url = "http://backend:5000/api"

[storage]
driver = "redis"
namespace = "team-a:"

[redis]
host = "cache"
port = 6380

[ui]
notice_duration = "1s"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	v := viper.New()
	v.AddConfigPath(dir)

	cfg, err := LoadWith(v)
	require.NoError(t, err)

	assert.Equal(t, "3100", cfg.App.Port)
	assert.Equal(t, "http://backend:5000/api", cfg.API.BaseURL)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "team-a:", cfg.Storage.Namespace)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr())
	assert.Equal(t, time.Second, cfg.UI.NoticeDuration)
}
