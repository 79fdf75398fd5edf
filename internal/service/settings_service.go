package service

import (
	"context"
	"errors"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

const defaultNumberOfPeriods = 6

// SettingsService manages the single settings record of a class.
type SettingsService interface {
	Get(ctx context.Context, tenantID string) (models.ClassSettings, error)
	Update(ctx context.Context, tenantID, actorID string, settings models.ClassSettings) (models.ClassSettings, error)
}

type settingsService struct {
	docs      repository.DocumentRepository
	log       ActionLogger
	schema    audit.Schema
	validator *validator.Validate
	codec     audit.Codec
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSettingsService constructs the settings service.
func NewSettingsService(docs repository.DocumentRepository, log ActionLogger, validate *validator.Validate, logger zerolog.Logger) SettingsService {
	schema, _ := audit.SchemaFor(audit.CollectionSettings)
	return &settingsService{
		docs:      docs,
		log:       log,
		schema:    schema,
		validator: validate,
		codec:     audit.DefaultCodec,
		logger:    logger.With().Str("component", "settings_service").Logger(),
		now:       time.Now,
	}
}

// DefaultClassSettings is what a class sees before anyone saves settings.
func DefaultClassSettings() models.ClassSettings {
	return models.ClassSettings{
		NumberOfPeriods: defaultNumberOfPeriods,
		SchoolDays:      []int{1, 2, 3, 4, 5},
		Timezone:        "Asia/Jakarta",
	}
}

func (s *settingsService) Get(ctx context.Context, tenantID string) (models.ClassSettings, error) {
	doc, err := s.docs.Get(ctx, tenantID, audit.CollectionSettings, audit.SettingsRecordID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return DefaultClassSettings(), nil
		}
		return models.ClassSettings{}, storageError("load settings", err)
	}

	var settings models.ClassSettings
	if err := audit.DecodeInto(doc, &settings); err != nil {
		return models.ClassSettings{}, err
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, tenantID, actorID string, settings models.ClassSettings) (models.ClassSettings, error) {
	settings.ClassName = strings.TrimSpace(settings.ClassName)
	settings.Timezone = strings.TrimSpace(settings.Timezone)
	if settings.Timezone == "" {
		settings.Timezone = DefaultClassSettings().Timezone
	}
	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return models.ClassSettings{}, audit.NewError(audit.ErrValidation, "update settings", err)
	}
	settings.UpdatedAt = s.now().UTC()
	if s.validator != nil {
		if err := s.validator.Struct(settings); err != nil {
			return models.ClassSettings{}, err
		}
	}

	var before audit.Snapshot
	current, err := s.docs.Get(ctx, tenantID, audit.CollectionSettings, audit.SettingsRecordID)
	switch {
	case err == nil:
		before, err = s.codec.CaptureDocument(s.schema, current)
		if err != nil {
			return models.ClassSettings{}, err
		}
	case errors.Is(err, repository.ErrDocumentNotFound):
	default:
		return models.ClassSettings{}, storageError("load settings", err)
	}

	after, err := s.codec.Capture(settings)
	if err != nil {
		return models.ClassSettings{}, err
	}
	doc, err := s.codec.Restore(s.schema, after)
	if err != nil {
		return models.ClassSettings{}, err
	}
	if after, err = s.codec.CaptureDocument(s.schema, doc); err != nil {
		return models.ClassSettings{}, err
	}

	write := repository.DocumentWrite{Collection: audit.CollectionSettings, DocID: audit.SettingsRecordID, Op: repository.WriteSet, Data: doc}
	if err := s.docs.Commit(ctx, tenantID, []repository.DocumentWrite{write}); err != nil {
		return models.ClassSettings{}, storageError("write settings", err)
	}

	details, err := audit.SingleChange(before, after, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build settings log details")
		return settings, nil
	}
	AppendBestEffort(ctx, s.log, s.logger, tenantID, audit.KindSettingsUpdate, actorID, details)
	return settings, nil
}
