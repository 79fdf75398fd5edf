package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/dto"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/observability"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	systemActorID       = "system"
)

// ActionLogger is the boundary domain controllers call after committing their own write.
type ActionLogger interface {
	Append(ctx context.Context, tenantID string, kind audit.Kind, actorID string, details audit.Details) (string, error)
}

// ActionLogPublisher receives every entry after it is persisted.
type ActionLogPublisher interface {
	Publish(ctx context.Context, entry dto.ActionLogResponse)
}

// ActionLogService is the append-only store of what happened in a class.
type ActionLogService interface {
	ActionLogger
	ListRecent(ctx context.Context, tenantID string, limit int) (dto.ActionLogListResponse, error)
	List(ctx context.Context, tenantID string, req dto.ActionLogListRequest) (dto.ActionLogListResponse, error)
	GetByID(ctx context.Context, tenantID, logID string) (dto.ActionLogResponse, error)
}

type actionLogService struct {
	repo       repository.ActionLogRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	publishers []ActionLogPublisher
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewActionLogService constructs the action log store. cache may be nil.
func NewActionLogService(repo repository.ActionLogRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger, publishers ...ActionLogPublisher) ActionLogService {
	return &actionLogService{
		repo:       repo,
		cache:      cache,
		cacheTTL:   cacheTTL,
		publishers: publishers,
		logger:     logger.With().Str("component", "action_log_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/jadwal-api/internal/service/action_log"),
		now:        time.Now,
	}
}

func (s *actionLogService) Append(ctx context.Context, tenantID string, kind audit.Kind, actorID string, details audit.Details) (string, error) {
	ctx, span := s.tracer.Start(ctx, "action_log.append", trace.WithAttributes(
		attribute.String("action_log.class_id", tenantID),
		attribute.String("action_log.action", string(kind)),
	))
	defer span.End()

	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		err := audit.NewError(audit.ErrValidation, "append action log", fmt.Errorf("class id is required"))
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return "", err
	}
	if !kind.Valid() {
		err := audit.NewError(audit.ErrValidation, "append action log", fmt.Errorf("unknown action kind %q", kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return "", err
	}

	raw, err := details.Encode()
	if err != nil {
		observability.ActionLogAppends().WithLabelValues(string(kind), "invalid").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return "", err
	}

	entry := models.ActionLog{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Action:    string(kind),
		ActorID:   normalizeActor(actorID),
		Details:   datatypes.JSON(raw),
		Timestamp: s.now().UTC(),
	}

	if err := s.repo.Append(ctx, &entry); err != nil {
		observability.ActionLogAppends().WithLabelValues(string(kind), "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "append_failed")
		return "", storageError("append action log", err)
	}
	observability.ActionLogAppends().WithLabelValues(string(kind), "ok").Inc()

	s.invalidate(ctx, tenantID)

	stored, err := audit.DecodeDetails(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("log_id", entry.ID).Msg("failed to decode appended details")
		stored = details
	}
	response := dto.NewActionLogResponse(entry, stored)
	for _, publisher := range s.publishers {
		publisher.Publish(ctx, response)
	}

	return entry.ID, nil
}

func (s *actionLogService) ListRecent(ctx context.Context, tenantID string, limit int) (dto.ActionLogListResponse, error) {
	limit = clampHistoryLimit(limit)
	cacheKey := historyCacheKey(tenantID)
	field := strconv.Itoa(limit)

	if s.cache != nil {
		if cached, err := s.cache.HGet(ctx, cacheKey, field).Result(); err == nil {
			var response dto.ActionLogListResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read history cache")
		}
	}

	response, err := s.List(ctx, tenantID, dto.ActionLogListRequest{Page: 1, PageSize: limit})
	if err != nil {
		return dto.ActionLogListResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			pipe := s.cache.TxPipeline()
			pipe.HSet(ctx, cacheKey, field, payload)
			pipe.Expire(ctx, cacheKey, s.cacheTTL)
			if _, err := pipe.Exec(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store history cache")
			}
		}
	}

	return response, nil
}

func (s *actionLogService) List(ctx context.Context, tenantID string, req dto.ActionLogListRequest) (dto.ActionLogListResponse, error) {
	if strings.TrimSpace(tenantID) == "" {
		return dto.ActionLogListResponse{}, audit.NewError(audit.ErrValidation, "list action logs", fmt.Errorf("class id is required"))
	}

	filter := repository.ActionLogFilter{
		TenantID: tenantID,
		Page:     maxInt(req.Page, 1),
		PageSize: clampHistoryLimit(req.PageSize),
		ActorID:  strings.TrimSpace(req.ActorID),
		Action:   strings.TrimSpace(req.Action),
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActionLogListResponse{}, storageError("list action logs", err)
	}

	items := make([]dto.ActionLogResponse, 0, len(entries))
	for _, entry := range entries {
		details, err := audit.DecodeDetails(entry.Details)
		if err != nil {
			s.logger.Warn().Err(err).Str("log_id", entry.ID).Msg("skipping undecodable details")
			details = audit.Details{}
		}
		items = append(items, dto.NewActionLogResponse(entry, details))
	}

	pagination := dto.PaginationMeta{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
	}

	return dto.ActionLogListResponse{Items: items, Pagination: pagination}, nil
}

func (s *actionLogService) GetByID(ctx context.Context, tenantID, logID string) (dto.ActionLogResponse, error) {
	entry, err := s.repo.GetByID(ctx, tenantID, logID)
	if err != nil {
		return dto.ActionLogResponse{}, storageError("get action log", err)
	}
	details, err := audit.DecodeDetails(entry.Details)
	if err != nil {
		return dto.ActionLogResponse{}, err
	}
	return dto.NewActionLogResponse(entry, details), nil
}

func (s *actionLogService) invalidate(ctx context.Context, tenantID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, historyCacheKey(tenantID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("class_id", tenantID).Msg("failed to invalidate history cache")
	}
}

// AppendBestEffort records an action after the caller's own write has committed.
// A failed append is logged and never surfaces to the caller.
func AppendBestEffort(ctx context.Context, log ActionLogger, logger zerolog.Logger, tenantID string, kind audit.Kind, actorID string, details audit.Details) string {
	if log == nil {
		return ""
	}
	id, err := log.Append(ctx, tenantID, kind, actorID, details)
	if err != nil {
		logger.Error().Err(err).Str("class_id", tenantID).Str("action", string(kind)).Msg("failed to append action log")
		return ""
	}
	return id
}

func historyCacheKey(tenantID string) string {
	return fmt.Sprintf("jadwal:history:%s", tenantID)
}

func clampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return limit
	}
}

func normalizeActor(actorID string) string {
	actor := strings.TrimSpace(actorID)
	if actor == "" {
		return systemActorID
	}
	return actor
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
