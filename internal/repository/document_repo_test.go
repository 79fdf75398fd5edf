package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/models"
)

func setupStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:store_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Document{}, &models.ActionLog{}))
	return db
}

func TestDocumentRepositoryCommitUpsertsAndDeletes(t *testing.T) {
	db := setupStoreTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	err := repo.Commit(ctx, "class-a", []DocumentWrite{
		{Collection: audit.CollectionSubjects, DocID: "s2", Op: WriteSet, Data: audit.Document{"id": "s2", "name": "Art"}},
		{Collection: audit.CollectionSubjects, DocID: "s1", Op: WriteSet, Data: audit.Document{"id": "s1", "name": "Math"}},
	})
	require.NoError(t, err)

	err = repo.Commit(ctx, "class-a", []DocumentWrite{
		{Collection: audit.CollectionSubjects, DocID: "s1", Op: WriteSet, Data: audit.Document{"id": "s1", "name": "Mathematics", "room": nil}},
	})
	require.NoError(t, err)

	doc, err := repo.Get(ctx, "class-a", audit.CollectionSubjects, "s1")
	require.NoError(t, err)
	require.Equal(t, "Mathematics", doc["name"])
	require.Contains(t, doc, "room")
	require.Nil(t, doc["room"])

	docs, err := repo.List(ctx, "class-a", audit.CollectionSubjects)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "s1", docs[0]["id"])
	require.Equal(t, "s2", docs[1]["id"])

	require.NoError(t, repo.Commit(ctx, "class-a", []DocumentWrite{
		{Collection: audit.CollectionSubjects, DocID: "s2", Op: WriteDelete},
		{Collection: audit.CollectionSubjects, DocID: "missing", Op: WriteDelete},
	}))

	_, err = repo.Get(ctx, "class-a", audit.CollectionSubjects, "s2")
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentRepositoryPartitionsByClass(t *testing.T) {
	db := setupStoreTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Commit(ctx, "class-a", []DocumentWrite{
		{Collection: audit.CollectionSubjects, DocID: "s1", Op: WriteSet, Data: audit.Document{"id": "s1", "name": "Math"}},
	}))

	_, err := repo.Get(ctx, "class-b", audit.CollectionSubjects, "s1")
	require.ErrorIs(t, err, ErrDocumentNotFound)

	docs, err := repo.List(ctx, "class-b", audit.CollectionSubjects)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestDocumentRepositoryCommitIsAtomic(t *testing.T) {
	db := setupStoreTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Commit(ctx, "class-a", []DocumentWrite{
		{Collection: audit.CollectionFixedSlots, DocID: "1-1", Op: WriteSet, Data: audit.Document{"id": "1-1", "note": "old"}},
	}))

	err := repo.Commit(ctx, "class-a", []DocumentWrite{
		{Collection: audit.CollectionFixedSlots, DocID: "1-1", Op: WriteSet, Data: audit.Document{"id": "1-1", "note": "new"}},
		{Collection: audit.CollectionFixedSlots, DocID: "1-2", Op: WriteSet, Data: audit.Document{"id": "1-2"}},
		{Collection: audit.CollectionFixedSlots, DocID: "", Op: WriteSet, Data: audit.Document{}},
	})
	require.Error(t, err)

	doc, err := repo.Get(ctx, "class-a", audit.CollectionFixedSlots, "1-1")
	require.NoError(t, err)
	require.Equal(t, "old", doc["note"])

	_, err = repo.Get(ctx, "class-a", audit.CollectionFixedSlots, "1-2")
	require.ErrorIs(t, err, ErrDocumentNotFound)
}
