package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "DB_DRIVER", "DB_HOST", "DB_USER", "DB_PASS", "DB_NAME", "DB_PORT", "DB_PATH",
	"JWT_SECRET", "TOKEN_TTL", "INVITE_TTL", "GAME_TICK", "RECONNECT_GRACE",
	"NATS_URL", "NATS_SUBJECT", "LOG_LEVEL", "LOG_FORMAT", "ALLOWED_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "arena.db", cfg.DB.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Hour, cfg.InviteTTL)
	assert.Equal(t, 6*time.Millisecond, cfg.GameTick)
	assert.Equal(t, 10*time.Second, cfg.ReconnectGrace)
	assert.Equal(t, "arena.events", cfg.NATSSubject)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Contains(t, cfg.DB.DSN(), "dbname=arena")
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("INVITE_TTL", "5m")
	t.Setenv("GAME_TICK", "16ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, http://localhost")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 5*time.Minute, cfg.InviteTTL)
	assert.Equal(t, 16*time.Millisecond, cfg.GameTick)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost"}, cfg.AllowedOrigins)
	assert.True(t, cfg.OriginAllowed("http://localhost"))
	assert.False(t, cfg.OriginAllowed("http://evil.example"))
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"INVITE_TTL", "soon"},
		{"GAME_TICK", "-1ms"},
		{"RECONNECT_GRACE", "0s"},
		{"DB_DRIVER", "mysql"},
		{"LOG_LEVEL", "loud"},
		{"LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("PORT")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9999\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	os.Unsetenv("PORT")
}

func TestLoadWithoutEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}
