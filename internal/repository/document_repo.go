package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/models"
)

// ErrDocumentNotFound indicates the requested document does not exist in the class partition.
var ErrDocumentNotFound = errors.New("document not found")

// WriteOp selects what a DocumentWrite does.
type WriteOp int

const (
	// WriteSet creates or fully overwrites a document.
	WriteSet WriteOp = iota + 1
	// WriteDelete removes a document. Deleting a missing document is a no-op.
	WriteDelete
)

func (o WriteOp) String() string {
	switch o {
	case WriteSet:
		return "set"
	case WriteDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// DocumentWrite is one element of an atomic batch.
type DocumentWrite struct {
	Collection audit.Collection
	DocID      string
	Op         WriteOp
	Data       audit.Document
}

// DocumentRepository is the shared document store every collection lives in.
type DocumentRepository interface {
	Get(ctx context.Context, tenantID string, collection audit.Collection, docID string) (audit.Document, error)
	List(ctx context.Context, tenantID string, collection audit.Collection) ([]audit.Document, error)
	Commit(ctx context.Context, tenantID string, writes []DocumentWrite) error
}

type documentRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDocumentRepository constructs the GORM-backed document store.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db, now: time.Now}
}

func (r *documentRepository) Get(ctx context.Context, tenantID string, collection audit.Collection, docID string) (audit.Document, error) {
	var row models.Document
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND collection = ? AND doc_id = ?", tenantID, string(collection), docID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	return audit.ParseDocument(row.Data)
}

func (r *documentRepository) List(ctx context.Context, tenantID string, collection audit.Collection) ([]audit.Document, error) {
	var rows []models.Document
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND collection = ?", tenantID, string(collection)).
		Order("doc_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	docs := make([]audit.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := audit.ParseDocument(row.Data)
		if err != nil {
			return nil, fmt.Errorf("document %s/%s: %w", collection, row.DocID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Commit applies every write inside one transaction; either all of them land or none do.
func (r *documentRepository) Commit(ctx context.Context, tenantID string, writes []DocumentWrite) error {
	if len(writes) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now().UTC()
		for _, write := range writes {
			if write.DocID == "" {
				return fmt.Errorf("write to %s without document id", write.Collection)
			}

			switch write.Op {
			case WriteSet:
				data, err := json.Marshal(write.Data)
				if err != nil {
					return fmt.Errorf("encode %s/%s: %w", write.Collection, write.DocID, err)
				}
				row := models.Document{
					TenantID:   tenantID,
					Collection: string(write.Collection),
					DocID:      write.DocID,
					Data:       data,
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				err = tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "collection"}, {Name: "doc_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
				}).Create(&row).Error
				if err != nil {
					return err
				}
			case WriteDelete:
				err := tx.Where("tenant_id = ? AND collection = ? AND doc_id = ?", tenantID, string(write.Collection), write.DocID).
					Delete(&models.Document{}).Error
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown write op %d for %s/%s", write.Op, write.Collection, write.DocID)
			}
		}
		return nil
	})
}
