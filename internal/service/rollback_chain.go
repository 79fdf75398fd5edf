package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

// planReapply undoes a rollback entry by re-applying the after state of the action it reversed.
// The result is recorded as rollback_reapply, which itself cannot be rolled back.
func (s *rollbackService) planReapply(ctx context.Context, tenantID string, rollbackEntry models.ActionLog, details audit.Details) (rollbackPlan, error) {
	if details.OriginalLogID == "" {
		return rollbackPlan{}, audit.NewError(audit.ErrAmbiguousState, "rollback chain",
			fmt.Errorf("rollback entry %s does not reference the action it reversed", rollbackEntry.ID))
	}

	original, err := s.logs.GetByID(ctx, tenantID, details.OriginalLogID)
	if err != nil {
		return rollbackPlan{}, storageError("read reversed action", err)
	}

	originalKind := audit.Kind(original.Action)
	registered, err := audit.Lookup(originalKind)
	if err != nil {
		return rollbackPlan{}, audit.NewError(audit.ErrUnsupportedAction, "rollback chain", err)
	}
	switch registered.Shape {
	case audit.ShapeCreate, audit.ShapeUpdate, audit.ShapeDelete, audit.ShapeBatchUpdate, audit.ShapeBatchUpsert:
	default:
		return rollbackPlan{}, audit.NewError(audit.ErrUnsupportedAction, "rollback chain",
			fmt.Errorf("reversed action %s cannot be re-applied", originalKind))
	}

	schema, ok := registered.Schema()
	if !ok {
		return rollbackPlan{}, audit.NewError(audit.ErrValidation, "rollback chain", fmt.Errorf("no snapshot schema for %s", registered.Collection))
	}

	originalDetails, err := audit.DecodeDetails(original.Details)
	if err != nil {
		return rollbackPlan{}, audit.NewError(audit.ErrAmbiguousState, "rollback chain", err)
	}

	plan := rollbackPlan{kind: audit.KindRollbackReapply}
	meta := map[string]any{"collection": string(registered.Collection), "shape": registered.Shape.String()}

	if registered.Shape.IsBatch() {
		before, after, err := originalDetails.BatchStates()
		if err != nil {
			return rollbackPlan{}, err
		}
		ids, err := audit.ExtractRecordIDs(originalKind, before, after)
		if err != nil {
			return rollbackPlan{}, err
		}
		for _, id := range ids {
			write, err := s.restoreWrite(schema, id, after[id])
			if err != nil {
				return rollbackPlan{}, err
			}
			plan.writes = append(plan.writes, write)
		}
		meta["count"] = len(ids)
		plan.restored = ids
		plan.details, err = audit.BatchChange(before, after, meta)
		if err != nil {
			return rollbackPlan{}, err
		}
		plan.details.RestoredDocIDs = ids
	} else {
		before, after, err := originalDetails.SingleStates()
		if err != nil {
			return rollbackPlan{}, err
		}
		id, err := audit.ExtractRecordID(originalKind, before, after)
		if err != nil {
			return rollbackPlan{}, err
		}
		write, err := s.restoreWrite(schema, id, after)
		if err != nil {
			return rollbackPlan{}, err
		}
		plan.writes = []repository.DocumentWrite{write}
		plan.restored = []string{id}
		plan.details, err = audit.SingleChange(before, after, meta)
		if err != nil {
			return rollbackPlan{}, err
		}
		plan.details.RestoredDocID = id
	}

	plan.details.OriginalLogID = rollbackEntry.ID
	plan.details.OriginalAction = audit.KindRollback
	plan.details.ReappliedLogID = original.ID
	return plan, nil
}
