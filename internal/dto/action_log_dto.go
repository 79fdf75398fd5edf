package dto

import (
	"time"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ActionLogListRequest defines filters for the class history view.
type ActionLogListRequest struct {
	Page     int
	PageSize int
	ActorID  string
	Action   string
}

// ActionLogResponse serializes one history entry together with whether it can be undone.
type ActionLogResponse struct {
	ID         string        `json:"id"`
	ClassID    string        `json:"class_id"`
	Sequence   int64         `json:"sequence"`
	Action     audit.Kind    `json:"action"`
	ActorID    string        `json:"actor_id"`
	Timestamp  time.Time     `json:"timestamp"`
	Reversible bool          `json:"reversible"`
	Details    audit.Details `json:"details"`
}

// ActionLogListResponse wraps recent history entries, newest first.
type ActionLogListResponse struct {
	Items      []ActionLogResponse `json:"items"`
	Pagination PaginationMeta      `json:"pagination"`
	CacheHit   bool                `json:"cache_hit"`
}

// RollbackResponse describes the entry appended by a successful rollback.
type RollbackResponse struct {
	LogID          string     `json:"log_id"`
	Action         audit.Kind `json:"action"`
	OriginalLogID  string     `json:"original_log_id"`
	ReappliedLogID string     `json:"reapplied_log_id,omitempty"`
	RestoredDocIDs []string   `json:"restored_doc_ids"`
}

// NewActionLogResponse converts a stored entry into its response, annotating reversibility.
func NewActionLogResponse(entry models.ActionLog, details audit.Details) ActionLogResponse {
	kind := audit.Kind(entry.Action)
	return ActionLogResponse{
		ID:         entry.ID,
		ClassID:    entry.TenantID,
		Sequence:   entry.Sequence,
		Action:     kind,
		ActorID:    entry.ActorID,
		Timestamp:  entry.Timestamp,
		Reversible: audit.IsReversible(kind),
		Details:    details,
	}
}
