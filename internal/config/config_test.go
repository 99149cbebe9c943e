package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
storage:
  driver: "sqlite"
  path: "storage/test.db"
http_server:
  address: "localhost:9090"
  read_timeout: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "storage/test.db", cfg.Storage.Path)
	assert.Equal(t, "localhost:9090", cfg.HTTPServer.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTPServer.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.WriteTimeout, "env-default applies")
	assert.Equal(t, 5*time.Second, cfg.HTTPServer.ShutdownTimeout)
	assert.False(t, cfg.Metrics.Disabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
http_server:
  address: "localhost:9090"
`)
	t.Setenv("STORAGE_DRIVER", DriverPostgres)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/students")
	t.Setenv("METRICS_DISABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/students", cfg.Storage.DSN)
	assert.True(t, cfg.Metrics.Disabled)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorContains(t, err, "does not exist")
	})

	t.Run("missing required address", func(t *testing.T) {
		_, err := Load(writeConfig(t, `env: "dev"`))
		require.Error(t, err)
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
env: "prod"
storage:
  driver: "postgres"
http_server:
  address: ":8080"
`))
		require.ErrorContains(t, err, "storage.dsn is required")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		storage Storage
		wantErr string
	}{
		{name: "sqlite", storage: Storage{Driver: DriverSQLite, Path: "x.db"}},
		{name: "sqlite without path", storage: Storage{Driver: DriverSQLite}, wantErr: "storage.path"},
		{name: "redis", storage: Storage{Driver: DriverRedis, RedisURL: "redis://localhost:6379/0"}},
		{name: "redis without url", storage: Storage{Driver: DriverRedis}, wantErr: "storage.redis_url"},
		{name: "memory", storage: Storage{Driver: DriverMemory}},
		{name: "unknown driver", storage: Storage{Driver: "mongo"}, wantErr: `unknown storage driver "mongo"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Env: "dev", Storage: tt.storage}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
