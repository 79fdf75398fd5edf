package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadReadsPrefixedEnvironment(t *testing.T) {
	t.Setenv("JADWAL_JWT_SECRET", "secret")
	t.Setenv("JADWAL_DATABASE_DRIVER", "SQLite")
	t.Setenv("JADWAL_DATABASE_URL", "file:jadwal.db")
	t.Setenv("JADWAL_HISTORY_CACHE_TTL", "45s")
	t.Setenv("JADWAL_APP_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	require.Equal(t, 45*time.Second, cfg.HistoryCacheTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	require.Equal(t, "jadwal.history", cfg.NATSSubject)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("JADWAL_JWT_SECRET", "")
	t.Setenv("JADWAL_DATABASE_URL", "file:jadwal.db")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JADWAL_JWT_SECRET", "secret")
	t.Setenv("JADWAL_DATABASE_URL", "mysql://localhost")
	t.Setenv("JADWAL_DATABASE_DRIVER", "mysql")

	_, err := Load()
	require.ErrorContains(t, err, "unsupported database driver")
}
