package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/config"
	"github.com/noah-isme/jadwal-api/internal/database"
)

func TestBackendAppendsInvalidateHistoryCache(t *testing.T) {
	server := miniredis.RunT(t)
	t.Setenv("JADWAL_DATABASE_DRIVER", config.DriverSQLite)
	t.Setenv("JADWAL_DATABASE_URL", filepath.Join(t.TempDir(), "jadwal.db"))
	t.Setenv("JADWAL_REDIS_URL", "redis://"+server.Addr()+"/0")
	t.Setenv("JADWAL_NATS_URL", "")

	ctx := context.Background()
	b, err := openBackend(ctx)
	require.NoError(t, err)
	defer b.Close()
	require.NotNil(t, b.cache)
	require.NoError(t, database.Migrate(b.db))

	const classID = "class-7b"
	_, err = b.logs.ListRecent(ctx, classID, 10)
	require.NoError(t, err)
	require.True(t, server.Exists("jadwal:history:"+classID))

	details, err := audit.SingleChange(nil, audit.Snapshot{"id": "s1", "name": "Math"}, nil)
	require.NoError(t, err)
	_, err = b.logs.Append(ctx, classID, audit.KindSubjectCreate, "ops", details)
	require.NoError(t, err)
	require.False(t, server.Exists("jadwal:history:"+classID))

	recent, err := b.logs.ListRecent(ctx, classID, 10)
	require.NoError(t, err)
	require.Len(t, recent.Items, 1)
	require.False(t, recent.CacheHit)
}
