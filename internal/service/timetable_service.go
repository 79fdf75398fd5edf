package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

// TimetableService manages the weekly base timetable.
type TimetableService interface {
	List(ctx context.Context, tenantID string) ([]models.FixedSlot, error)
	BatchUpdate(ctx context.Context, tenantID, actorID string, slots []models.FixedSlot) ([]models.FixedSlot, error)
}

type timetableService struct {
	docs      repository.DocumentRepository
	log       ActionLogger
	schema    audit.Schema
	validator *validator.Validate
	codec     audit.Codec
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTimetableService constructs the fixed timetable service.
func NewTimetableService(docs repository.DocumentRepository, log ActionLogger, validate *validator.Validate, logger zerolog.Logger) TimetableService {
	schema, _ := audit.SchemaFor(audit.CollectionFixedSlots)
	return &timetableService{
		docs:      docs,
		log:       log,
		schema:    schema,
		validator: validate,
		codec:     audit.DefaultCodec,
		logger:    logger.With().Str("component", "timetable_service").Logger(),
		now:       time.Now,
	}
}

// FixedSlotID is the document id of the cell at day and period.
func FixedSlotID(day, period int) string {
	return fmt.Sprintf("%d-%d", day, period)
}

func (s *timetableService) List(ctx context.Context, tenantID string) ([]models.FixedSlot, error) {
	docs, err := s.docs.List(ctx, tenantID, audit.CollectionFixedSlots)
	if err != nil {
		return nil, storageError("list fixed slots", err)
	}
	slots := make([]models.FixedSlot, 0, len(docs))
	for _, doc := range docs {
		var slot models.FixedSlot
		if err := audit.DecodeInto(doc, &slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].Period < slots[j].Period
	})
	return slots, nil
}

// BatchUpdate writes every slot in one atomic batch. A slot with neither subject nor note clears the cell.
func (s *timetableService) BatchUpdate(ctx context.Context, tenantID, actorID string, slots []models.FixedSlot) ([]models.FixedSlot, error) {
	if len(slots) == 0 {
		return nil, audit.NewError(audit.ErrValidation, "update fixed slots", errors.New("at least one slot is required"))
	}

	now := s.now().UTC()
	before := make(map[string]audit.Snapshot, len(slots))
	after := make(map[string]audit.Snapshot, len(slots))
	writes := make([]repository.DocumentWrite, 0, len(slots))
	saved := make([]models.FixedSlot, 0, len(slots))

	for _, slot := range slots {
		slot.ID = FixedSlotID(slot.DayOfWeek, slot.Period)
		slot.SubjectID = trimOptional(slot.SubjectID)
		slot.Note = trimOptional(slot.Note)
		slot.UpdatedAt = now
		if s.validator != nil {
			if err := s.validator.Struct(slot); err != nil {
				return nil, err
			}
		}
		if _, dup := after[slot.ID]; dup {
			return nil, audit.NewError(audit.ErrValidation, "update fixed slots", fmt.Errorf("slot %s listed twice", slot.ID))
		}

		current, err := s.docs.Get(ctx, tenantID, audit.CollectionFixedSlots, slot.ID)
		switch {
		case err == nil:
			snapshot, err := s.codec.CaptureDocument(s.schema, current)
			if err != nil {
				return nil, err
			}
			before[slot.ID] = snapshot
		case errors.Is(err, repository.ErrDocumentNotFound):
			before[slot.ID] = nil
		default:
			return nil, storageError("load fixed slot", err)
		}

		if slot.SubjectID == nil && slot.Note == nil {
			after[slot.ID] = nil
			writes = append(writes, repository.DocumentWrite{Collection: audit.CollectionFixedSlots, DocID: slot.ID, Op: repository.WriteDelete})
			continue
		}

		snapshot, err := s.codec.Capture(slot)
		if err != nil {
			return nil, err
		}
		doc, err := s.codec.Restore(s.schema, snapshot)
		if err != nil {
			return nil, err
		}
		if snapshot, err = s.codec.CaptureDocument(s.schema, doc); err != nil {
			return nil, err
		}
		after[slot.ID] = snapshot
		writes = append(writes, repository.DocumentWrite{Collection: audit.CollectionFixedSlots, DocID: slot.ID, Op: repository.WriteSet, Data: doc})
		saved = append(saved, slot)
	}

	if err := s.docs.Commit(ctx, tenantID, writes); err != nil {
		return nil, storageError("write fixed slots", err)
	}

	details, err := audit.BatchChange(before, after, map[string]any{"count": len(writes)})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build fixed slot log details")
		return saved, nil
	}
	AppendBestEffort(ctx, s.log, s.logger, tenantID, audit.KindFixedSlotsBatchUpdate, actorID, details)
	return saved, nil
}
