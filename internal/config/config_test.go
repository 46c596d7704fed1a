package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the test and restores it afterwards, so values
// written by godotenv do not leak between tests.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./data/splitledger.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.ErrorIs(t, cfg.RequireJWTSecret(), ErrMissingJWTSecret)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9090"
database:
  path: /var/lib/splitledger.db
auth:
  jwt_secret: from-file
  token_ttl: 1h
logging:
  level: DEBUG
  format: json
redis:
  addr: localhost:6379
  ttl: 30s
metrics:
  enabled: false
`)

	cfg, err := Load(New(), Options{ConfigFile: path, EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/splitledger.db", cfg.Database.Path)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.RequireJWTSecret())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  addr: \":9090\"\n")
	t.Setenv("SPLITLEDGER_SERVER_ADDR", ":7070")
	t.Setenv("SPLITLEDGER_AUTH_TOKEN_TTL", "2h")

	cfg, err := Load(New(), Options{ConfigFile: path, EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_DotEnv(t *testing.T) {
	unsetEnv(t, "SPLITLEDGER_AUTH_JWT_SECRET")
	unsetEnv(t, "SPLITLEDGER_DATABASE_PATH")
	t.Setenv("SPLITLEDGER_LOGGING_LEVEL", "warn")

	envFile := writeFile(t, ".env", `
SPLITLEDGER_AUTH_JWT_SECRET=from-dotenv
SPLITLEDGER_DATABASE_PATH=/tmp/dotenv.db
SPLITLEDGER_LOGGING_LEVEL=debug
`)

	cfg, err := Load(New(), Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.JWTSecret)
	assert.Equal(t, "/tmp/dotenv.db", cfg.Database.Path)
	// Variables already in the environment are not overridden.
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(New(), Options{
		ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"),
		EnvFile:    filepath.Join(t.TempDir(), "missing.env"),
	})
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want error
	}{
		{"log level", "SPLITLEDGER_LOGGING_LEVEL", "chatty", ErrInvalidLogLevel},
		{"log format", "SPLITLEDGER_LOGGING_FORMAT", "xml", ErrInvalidLogFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load(New(), Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_BoundValueWins(t *testing.T) {
	t.Setenv("SPLITLEDGER_SERVER_ADDR", ":7070")
	v := New()
	v.Set("server.addr", ":6060")

	cfg, err := Load(v, Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.Server.Addr)
}
