package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/jadwal-api/internal/models"
)

func TestActionLogRepositoryAppendAssignsSequencePerClass(t *testing.T) {
	db := setupStoreTestDB(t)
	repo := NewActionLogRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	first := &models.ActionLog{ID: "l1", TenantID: "class-a", Action: "subject_create", ActorID: "u1", Timestamp: base}
	second := &models.ActionLog{ID: "l2", TenantID: "class-a", Action: "subject_update", ActorID: "u2", Timestamp: base.Add(time.Minute)}
	other := &models.ActionLog{ID: "l3", TenantID: "class-b", Action: "subject_create", ActorID: "u1", Timestamp: base}

	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))
	require.NoError(t, repo.Append(ctx, other))

	require.Equal(t, int64(1), first.Sequence)
	require.Equal(t, int64(2), second.Sequence)
	require.Equal(t, int64(1), other.Sequence)
}

func TestActionLogRepositoryAppendClampsTimestamp(t *testing.T) {
	db := setupStoreTestDB(t)
	repo := NewActionLogRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, &models.ActionLog{ID: "l1", TenantID: "class-a", Action: "subject_create", ActorID: "u1", Timestamp: base}))

	skewed := &models.ActionLog{ID: "l2", TenantID: "class-a", Action: "subject_update", ActorID: "u1", Timestamp: base.Add(-time.Hour)}
	require.NoError(t, repo.Append(ctx, skewed))
	require.True(t, skewed.Timestamp.Equal(base), "got %s", skewed.Timestamp)
}

func TestActionLogRepositoryListNewestFirstWithFilters(t *testing.T) {
	db := setupStoreTestDB(t)
	repo := NewActionLogRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	entries := []*models.ActionLog{
		{ID: "l1", TenantID: "class-a", Action: "subject_create", ActorID: "u1", Timestamp: base},
		{ID: "l2", TenantID: "class-a", Action: "subject_update", ActorID: "u2", Timestamp: base.Add(time.Minute)},
		{ID: "l3", TenantID: "class-a", Action: "subject_update", ActorID: "u1", Timestamp: base.Add(2 * time.Minute)},
	}
	for _, entry := range entries {
		require.NoError(t, repo.Append(ctx, entry))
	}

	all, total, err := repo.List(ctx, ActionLogFilter{TenantID: "class-a"})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, []string{"l3", "l2", "l1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	page, total, err := repo.List(ctx, ActionLogFilter{TenantID: "class-a", Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	require.Equal(t, "l1", page[0].ID)

	byActor, total, err := repo.List(ctx, ActionLogFilter{TenantID: "class-a", ActorID: "u1", Action: "subject_update"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "l3", byActor[0].ID)
}

func TestActionLogRepositoryGetByID(t *testing.T) {
	db := setupStoreTestDB(t)
	repo := NewActionLogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, &models.ActionLog{ID: "l1", TenantID: "class-a", Action: "subject_create", ActorID: "u1", Timestamp: time.Now()}))

	entry, err := repo.GetByID(ctx, "class-a", "l1")
	require.NoError(t, err)
	require.Equal(t, "subject_create", entry.Action)

	_, err = repo.GetByID(ctx, "class-b", "l1")
	require.ErrorIs(t, err, ErrActionLogNotFound)
}

func TestActionLogRepositoryConcurrentAppendsKeepEveryEntry(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "logs.db") + "?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.ActionLog{}))

	repo := NewActionLogRepository(db)
	const writers = 24
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Append(context.Background(), &models.ActionLog{
				ID:        fmt.Sprintf("l%02d", i),
				TenantID:  "class-a",
				Action:    "subject_update",
				ActorID:   "u1",
				Timestamp: base,
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, total, err := repo.List(context.Background(), ActionLogFilter{TenantID: "class-a", Page: 1, PageSize: writers})
	require.NoError(t, err)
	require.Equal(t, int64(writers), total)

	sequences := make([]int, 0, len(items))
	for _, item := range items {
		sequences = append(sequences, int(item.Sequence))
	}
	sort.Ints(sequences)
	for i, seq := range sequences {
		require.Equal(t, i+1, seq)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	require.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	require.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: action_logs.tenant_id, action_logs.sequence")))
	require.False(t, isUniqueViolation(&pgconn.PgError{Code: "40001"}))
	require.False(t, isUniqueViolation(errors.New("connection reset")))
}
