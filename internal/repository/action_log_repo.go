package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/noah-isme/jadwal-api/internal/models"
)

// ErrActionLogNotFound indicates the log entry does not exist in the class partition.
var ErrActionLogNotFound = errors.New("action log not found")

const maxAppendAttempts = 5

// ActionLogFilter narrows action log queries. TenantID is mandatory.
type ActionLogFilter struct {
	TenantID string
	Page     int
	PageSize int
	ActorID  string
	Action   string
}

// ActionLogRepository persists the append-only audit trail. It deliberately exposes no update or delete.
type ActionLogRepository interface {
	Append(ctx context.Context, entry *models.ActionLog) error
	GetByID(ctx context.Context, tenantID, id string) (models.ActionLog, error)
	List(ctx context.Context, filter ActionLogFilter) ([]models.ActionLog, int64, error)
}

type actionLogRepository struct {
	db *gorm.DB
}

// NewActionLogRepository constructs the action log repository.
func NewActionLogRepository(db *gorm.DB) ActionLogRepository {
	return &actionLogRepository{db: db}
}

// Append assigns the next per-class sequence and keeps timestamps non-decreasing within the class.
// On Postgres appends of one class are serialized with a transaction-scoped advisory lock; a sequence
// collision from any other writer is retried a bounded number of times.
func (r *actionLogRepository) Append(ctx context.Context, entry *models.ActionLog) error {
	var err error
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return appendInTx(tx, entry)
		})
		if err == nil || !isUniqueViolation(err) {
			return err
		}
	}
	return err
}

func appendInTx(tx *gorm.DB, entry *models.ActionLog) error {
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", entry.TenantID).Error; err != nil {
			return err
		}
	}

	var last models.ActionLog
	if err := tx.Where("tenant_id = ?", entry.TenantID).
		Order("sequence DESC").
		Limit(1).
		Find(&last).Error; err != nil {
		return err
	}

	entry.Sequence = last.Sequence + 1
	if entry.Timestamp.Before(last.Timestamp) {
		entry.Timestamp = last.Timestamp
	}

	return tx.Create(entry).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *actionLogRepository) GetByID(ctx context.Context, tenantID, id string) (models.ActionLog, error) {
	var entry models.ActionLog
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ActionLog{}, ErrActionLogNotFound
		}
		return models.ActionLog{}, err
	}
	return entry, nil
}

func (r *actionLogRepository) List(ctx context.Context, filter ActionLogFilter) ([]models.ActionLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActionLog{}).Where("tenant_id = ?", filter.TenantID)

	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var entries []models.ActionLog
	if err := query.Order("sequence DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
