package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/dto"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

const testClassID = "class-7b"

type storeFixture struct {
	db       *gorm.DB
	docs     repository.DocumentRepository
	logs     repository.ActionLogRepository
	history  ActionLogService
	rollback RollbackService
	validate *validator.Validate
	logger   zerolog.Logger
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:jadwal_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Document{}, &models.ActionLog{}))

	logger := zerolog.Nop()
	docs := repository.NewDocumentRepository(db)
	logs := repository.NewActionLogRepository(db)
	history := NewActionLogService(logs, nil, 0, logger)

	return &storeFixture{
		db:       db,
		docs:     docs,
		logs:     logs,
		history:  history,
		rollback: NewRollbackService(logs, docs, history, logger),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// latest returns the newest log entry of the class.
func (f *storeFixture) latest(t *testing.T) dto.ActionLogResponse {
	t.Helper()
	list, err := f.history.List(context.Background(), testClassID, dto.ActionLogListRequest{Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.NotEmpty(t, list.Items)
	return list.Items[0]
}

func (f *storeFixture) countActions(t *testing.T, kind audit.Kind) int {
	t.Helper()
	list, err := f.history.List(context.Background(), testClassID, dto.ActionLogListRequest{Page: 1, PageSize: 200, Action: string(kind)})
	require.NoError(t, err)
	return len(list.Items)
}

func (f *storeFixture) seed(t *testing.T, kind audit.Kind, details audit.Details) string {
	t.Helper()
	id, err := f.history.Append(context.Background(), testClassID, kind, "teacher-1", details)
	require.NoError(t, err)
	return id
}

// failingDocuments passes reads through and rejects every commit.
type failingDocuments struct {
	repository.DocumentRepository
	commits int
}

func (f *failingDocuments) Commit(context.Context, string, []repository.DocumentWrite) error {
	f.commits++
	return errors.New("disk I/O error")
}

// failingLogger rejects every append.
type failingLogger struct{}

func (failingLogger) Append(context.Context, string, audit.Kind, string, audit.Details) (string, error) {
	return "", audit.NewError(audit.ErrStorageUnavailable, "append action log", errors.New("connection refused"))
}

func stringPtr(value string) *string {
	return &value
}
