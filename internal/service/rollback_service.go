package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/dto"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/observability"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

// RollbackService reverses previously logged actions with compensating writes.
type RollbackService interface {
	Rollback(ctx context.Context, tenantID, logID, actorID string) (dto.RollbackResponse, error)
}

type rollbackService struct {
	logs   repository.ActionLogRepository
	docs   repository.DocumentRepository
	log    ActionLogger
	codec  audit.Codec
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// rollbackPlan is everything one rollback invocation commits and records.
type rollbackPlan struct {
	kind     audit.Kind
	writes   []repository.DocumentWrite
	restored []string
	details  audit.Details
}

// NewRollbackService constructs the rollback engine.
func NewRollbackService(logs repository.ActionLogRepository, docs repository.DocumentRepository, log ActionLogger, logger zerolog.Logger) RollbackService {
	return &rollbackService{
		logs:   logs,
		docs:   docs,
		log:    log,
		codec:  audit.DefaultCodec,
		logger: logger.With().Str("component", "rollback_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/jadwal-api/internal/service/rollback"),
		now:    time.Now,
	}
}

func (s *rollbackService) Rollback(ctx context.Context, tenantID, logID, actorID string) (dto.RollbackResponse, error) {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, "rollback.apply", trace.WithAttributes(
		attribute.String("rollback.class_id", tenantID),
		attribute.String("rollback.log_id", logID),
	))
	defer span.End()

	tenantID, logID = strings.TrimSpace(tenantID), strings.TrimSpace(logID)
	if tenantID == "" || logID == "" {
		err := audit.NewError(audit.ErrValidation, "rollback", fmt.Errorf("class id and log id are required"))
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.RollbackResponse{}, err
	}

	entry, err := s.logs.GetByID(ctx, tenantID, logID)
	if err != nil {
		err = storageError("read action log", err)
		return dto.RollbackResponse{}, s.finish(ctx, span, started, "", err, func() {
			if errors.Is(err, audit.ErrStorageUnavailable) {
				s.recordFailure(ctx, tenantID, logID, "", audit.KindRollback, actorID, err)
			}
		})
	}

	kind := audit.Kind(entry.Action)
	span.SetAttributes(attribute.String("rollback.action", string(kind)))

	registered, err := audit.Lookup(kind)
	if err != nil {
		err = audit.NewError(audit.ErrUnsupportedAction, "rollback", fmt.Errorf("unknown action kind %q", kind))
		return dto.RollbackResponse{}, s.finish(ctx, span, started, kind, err, nil)
	}

	plan, err := s.plan(ctx, tenantID, entry, registered)
	if err != nil {
		return dto.RollbackResponse{}, s.finish(ctx, span, started, kind, err, func() {
			if recordable(err) {
				s.recordFailure(ctx, tenantID, entry.ID, kind, attemptedKind(registered), actorID, err)
			}
		})
	}

	if err := s.docs.Commit(ctx, tenantID, plan.writes); err != nil {
		err = storageError("commit compensating writes", err)
		return dto.RollbackResponse{}, s.finish(ctx, span, started, kind, err, func() {
			s.recordFailure(ctx, tenantID, entry.ID, kind, plan.kind, actorID, err)
		})
	}

	newID, err := s.log.Append(ctx, tenantID, plan.kind, actorID, plan.details)
	if err != nil {
		s.logger.Error().Err(err).
			Str("class_id", tenantID).
			Str("log_id", entry.ID).
			Msg("compensating writes committed but rollback entry was not recorded")
		err = fmt.Errorf("rollback of %s applied but not recorded: %w", entry.ID, err)
		return dto.RollbackResponse{}, s.finish(ctx, span, started, kind, err, nil)
	}

	s.finish(ctx, span, started, kind, nil, nil)
	s.logger.Info().
		Str("class_id", tenantID).
		Str("log_id", entry.ID).
		Str("rollback_log_id", newID).
		Str("action", string(kind)).
		Int("writes", len(plan.writes)).
		Msg("rollback applied")

	return dto.RollbackResponse{
		LogID:          newID,
		Action:         plan.kind,
		OriginalLogID:  plan.details.OriginalLogID,
		ReappliedLogID: plan.details.ReappliedLogID,
		RestoredDocIDs: plan.restored,
	}, nil
}

func (s *rollbackService) plan(ctx context.Context, tenantID string, entry models.ActionLog, registered audit.Entry) (rollbackPlan, error) {
	switch registered.Shape {
	case audit.ShapeNonReversiblePropagation:
		return rollbackPlan{}, audit.NewError(audit.ErrUnsupportedAction, "rollback",
			fmt.Errorf("%s fans out to records the log does not enumerate", registered.Kind))
	case audit.ShapeRollbackFailure:
		return rollbackPlan{}, audit.NewError(audit.ErrUnsupportedAction, "rollback",
			fmt.Errorf("%s records a failed attempt and has nothing to undo", registered.Kind))
	case audit.ShapeReapply:
		return rollbackPlan{}, audit.NewError(audit.ErrUnsupportedAction, "rollback",
			fmt.Errorf("%s already undoes a rollback; chains are limited to one level", registered.Kind))
	}
	if !registered.Reversible {
		return rollbackPlan{}, audit.NewError(audit.ErrUnsupportedAction, "rollback", fmt.Errorf("%s is not reversible", registered.Kind))
	}

	details, err := audit.DecodeDetails(entry.Details)
	if err != nil {
		return rollbackPlan{}, audit.NewError(audit.ErrAmbiguousState, "rollback", err)
	}

	if registered.Shape == audit.ShapeRollback {
		return s.planReapply(ctx, tenantID, entry, details)
	}
	return s.planCompensation(entry, registered, details)
}

// planCompensation reverses a domain action by restoring every affected record to its before state.
func (s *rollbackService) planCompensation(entry models.ActionLog, registered audit.Entry, details audit.Details) (rollbackPlan, error) {
	schema, ok := registered.Schema()
	if !ok {
		return rollbackPlan{}, audit.NewError(audit.ErrValidation, "rollback", fmt.Errorf("no snapshot schema for %s", registered.Collection))
	}

	plan := rollbackPlan{kind: audit.KindRollback}
	meta := map[string]any{"collection": string(registered.Collection), "shape": registered.Shape.String()}

	if registered.Shape.IsBatch() {
		before, after, err := details.BatchStates()
		if err != nil {
			return rollbackPlan{}, err
		}
		ids, err := audit.ExtractRecordIDs(registered.Kind, before, after)
		if err != nil {
			return rollbackPlan{}, err
		}
		for _, id := range ids {
			write, err := s.restoreWrite(schema, id, before[id])
			if err != nil {
				return rollbackPlan{}, err
			}
			plan.writes = append(plan.writes, write)
		}
		meta["count"] = len(ids)
		plan.restored = ids
		plan.details, err = audit.BatchChange(after, before, meta)
		if err != nil {
			return rollbackPlan{}, err
		}
		plan.details.RestoredDocIDs = ids
	} else {
		before, after, err := details.SingleStates()
		if err != nil {
			return rollbackPlan{}, err
		}
		id, err := audit.ExtractRecordID(registered.Kind, before, after)
		if err != nil {
			return rollbackPlan{}, err
		}
		if registered.Shape == audit.ShapeDelete && before == nil {
			return rollbackPlan{}, audit.NewError(audit.ErrValidation, "rollback", fmt.Errorf("%s entry has no before snapshot to recreate", registered.Kind))
		}
		write, err := s.restoreWrite(schema, id, before)
		if err != nil {
			return rollbackPlan{}, err
		}
		plan.writes = []repository.DocumentWrite{write}
		plan.restored = []string{id}
		plan.details, err = audit.SingleChange(after, before, meta)
		if err != nil {
			return rollbackPlan{}, err
		}
		plan.details.RestoredDocID = id
	}

	plan.details.OriginalLogID = entry.ID
	plan.details.OriginalAction = registered.Kind
	return plan, nil
}

// restoreWrite makes the record equal to target: deleted when target is nil, fully overwritten otherwise.
func (s *rollbackService) restoreWrite(schema audit.Schema, id string, target audit.Snapshot) (repository.DocumentWrite, error) {
	if target == nil {
		return repository.DocumentWrite{Collection: schema.Collection, DocID: id, Op: repository.WriteDelete}, nil
	}
	doc, err := s.codec.Restore(schema, target)
	if err != nil {
		return repository.DocumentWrite{}, err
	}
	return repository.DocumentWrite{Collection: schema.Collection, DocID: id, Op: repository.WriteSet, Data: doc}, nil
}

func (s *rollbackService) recordFailure(ctx context.Context, tenantID, logID string, original, attempted audit.Kind, actorID string, cause error) {
	details := audit.Details{
		OriginalLogID:   logID,
		OriginalAction:  original,
		AttemptedAction: attempted,
		Reason:          cause.Error(),
	}
	AppendBestEffort(ctx, s.log, s.logger, tenantID, audit.KindRollbackActionFailed, actorID, details)
}

// finish records metrics and span status, runs onError for failures and returns err unchanged.
func (s *rollbackService) finish(ctx context.Context, span trace.Span, started time.Time, kind audit.Kind, err error, onError func()) error {
	outcome := rollbackOutcome(err)
	observability.Rollbacks().WithLabelValues(string(kind), outcome).Inc()
	observability.RollbackLatency().WithLabelValues(outcome).Observe(s.now().Sub(started).Seconds())

	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	if onError != nil {
		onError()
	}
	if outcome == "failed" {
		s.logger.Error().Err(err).Str("action", string(kind)).Msg("rollback failed")
	} else {
		s.logger.Warn().Err(err).Str("action", string(kind)).Msg("rollback rejected")
	}
	return err
}

func rollbackOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, audit.ErrUnsupportedAction):
		return "unsupported"
	case errors.Is(err, audit.ErrNotFound):
		return "not_found"
	default:
		return "failed"
	}
}

// recordable reports whether a planning failure is an attempted-and-failed undo rather than a refusal.
func recordable(err error) bool {
	return !errors.Is(err, audit.ErrUnsupportedAction) && !errors.Is(err, audit.ErrNotFound)
}

func attemptedKind(registered audit.Entry) audit.Kind {
	if registered.Shape == audit.ShapeRollback {
		return audit.KindRollbackReapply
	}
	return audit.KindRollback
}
