package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

const (
	defaultPropagationDays = 60
	maxPropagationDays     = 366
)

// PropagationResult summarizes a forward propagation over future dates.
type PropagationResult struct {
	From  string   `json:"from"`
	Days  int      `json:"days"`
	Count int      `json:"count"`
	Dates []string `json:"dates"`
}

// DailyAnnouncementService manages per-date schedules.
type DailyAnnouncementService interface {
	List(ctx context.Context, tenantID, from, to string) ([]models.DailyAnnouncement, error)
	Upsert(ctx context.Context, tenantID, actorID, date string, announcement models.DailyAnnouncement) (models.DailyAnnouncement, error)
	BatchUpsert(ctx context.Context, tenantID, actorID string, announcements []models.DailyAnnouncement) ([]models.DailyAnnouncement, error)
	ApplyScheduleToFuture(ctx context.Context, tenantID, actorID, from string, days int) (PropagationResult, error)
	ResetFuture(ctx context.Context, tenantID, actorID, from string) (PropagationResult, error)
}

type dailyAnnouncementService struct {
	docs      repository.DocumentRepository
	log       ActionLogger
	settings  SettingsService
	timetable TimetableService
	schema    audit.Schema
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	codec     audit.Codec
	logger    zerolog.Logger
	now       func() time.Time
}

// NewDailyAnnouncementService constructs the daily announcement service.
func NewDailyAnnouncementService(docs repository.DocumentRepository, log ActionLogger, settings SettingsService, timetable TimetableService, validate *validator.Validate, logger zerolog.Logger) DailyAnnouncementService {
	schema, _ := audit.SchemaFor(audit.CollectionDailyAnnouncements)
	return &dailyAnnouncementService{
		docs:      docs,
		log:       log,
		settings:  settings,
		timetable: timetable,
		schema:    schema,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		codec:     audit.DefaultCodec,
		logger:    logger.With().Str("component", "daily_announcement_service").Logger(),
		now:       time.Now,
	}
}

func (s *dailyAnnouncementService) List(ctx context.Context, tenantID, from, to string) ([]models.DailyAnnouncement, error) {
	var err error
	if from != "" {
		if from, err = parseDate(from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if to, err = parseDate(to); err != nil {
			return nil, err
		}
	}

	docs, err := s.docs.List(ctx, tenantID, audit.CollectionDailyAnnouncements)
	if err != nil {
		return nil, storageError("list daily announcements", err)
	}
	out := make([]models.DailyAnnouncement, 0, len(docs))
	for _, doc := range docs {
		var item models.DailyAnnouncement
		if err := audit.DecodeInto(doc, &item); err != nil {
			return nil, err
		}
		// ISO dates order lexically.
		if (from != "" && item.Date < from) || (to != "" && item.Date > to) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *dailyAnnouncementService) Upsert(ctx context.Context, tenantID, actorID, date string, announcement models.DailyAnnouncement) (models.DailyAnnouncement, error) {
	date, err := parseDate(date)
	if err != nil {
		return models.DailyAnnouncement{}, err
	}
	announcement.Date = date

	before, after, write, err := s.prepare(ctx, tenantID, announcement)
	if err != nil {
		return models.DailyAnnouncement{}, err
	}
	if err := s.docs.Commit(ctx, tenantID, []repository.DocumentWrite{write}); err != nil {
		return models.DailyAnnouncement{}, storageError("write daily announcement", err)
	}

	details, err := audit.SingleChange(before, after, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build daily announcement log details")
	} else {
		AppendBestEffort(ctx, s.log, s.logger, tenantID, audit.KindDailyAnnouncementUpsert, actorID, details)
	}

	var saved models.DailyAnnouncement
	if err := audit.DecodeInto(write.Data, &saved); err != nil {
		return models.DailyAnnouncement{}, err
	}
	return saved, nil
}

func (s *dailyAnnouncementService) BatchUpsert(ctx context.Context, tenantID, actorID string, announcements []models.DailyAnnouncement) ([]models.DailyAnnouncement, error) {
	if len(announcements) == 0 {
		return nil, audit.NewError(audit.ErrValidation, "upsert daily announcements", errors.New("at least one announcement is required"))
	}

	before := make(map[string]audit.Snapshot, len(announcements))
	after := make(map[string]audit.Snapshot, len(announcements))
	writes := make([]repository.DocumentWrite, 0, len(announcements))
	for _, announcement := range announcements {
		date, err := parseDate(announcement.Date)
		if err != nil {
			return nil, err
		}
		if _, dup := after[date]; dup {
			return nil, audit.NewError(audit.ErrValidation, "upsert daily announcements", fmt.Errorf("date %s listed twice", date))
		}
		announcement.Date = date

		prev, next, write, err := s.prepare(ctx, tenantID, announcement)
		if err != nil {
			return nil, err
		}
		before[date] = prev
		after[date] = next
		writes = append(writes, write)
	}

	if err := s.docs.Commit(ctx, tenantID, writes); err != nil {
		return nil, storageError("write daily announcements", err)
	}

	details, err := audit.BatchChange(before, after, map[string]any{"count": len(writes)})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build daily announcement log details")
	} else {
		AppendBestEffort(ctx, s.log, s.logger, tenantID, audit.KindDailyAnnouncementsBatchUpsert, actorID, details)
	}

	saved := make([]models.DailyAnnouncement, 0, len(writes))
	for _, write := range writes {
		var item models.DailyAnnouncement
		if err := audit.DecodeInto(write.Data, &item); err != nil {
			return nil, err
		}
		saved = append(saved, item)
	}
	return saved, nil
}

// ApplyScheduleToFuture copies the fixed timetable onto every school day in the window, leaving customized days alone.
func (s *dailyAnnouncementService) ApplyScheduleToFuture(ctx context.Context, tenantID, actorID, from string, days int) (PropagationResult, error) {
	settings, err := s.settings.Get(ctx, tenantID)
	if err != nil {
		return PropagationResult{}, err
	}
	start, err := s.windowStart(from, settings)
	if err != nil {
		return PropagationResult{}, err
	}
	days, err = clampPropagationDays(days)
	if err != nil {
		return PropagationResult{}, err
	}

	slots, err := s.timetable.List(ctx, tenantID)
	if err != nil {
		return PropagationResult{}, err
	}
	byDay := make(map[int][]models.PeriodEntry)
	for _, slot := range slots {
		byDay[slot.DayOfWeek] = append(byDay[slot.DayOfWeek], models.PeriodEntry{Period: slot.Period, SubjectID: slot.SubjectID, Note: slot.Note})
	}

	existing, err := s.existingByDate(ctx, tenantID)
	if err != nil {
		return PropagationResult{}, err
	}

	now := s.now().UTC()
	result := PropagationResult{From: start.Format(time.DateOnly), Days: days, Dates: []string{}}
	writes := make([]repository.DocumentWrite, 0, days)
	for offset := 0; offset < days; offset++ {
		day := start.AddDate(0, 0, offset)
		if !slices.Contains(settings.SchoolDays, int(day.Weekday())) {
			continue
		}
		date := day.Format(time.DateOnly)
		current, ok := existing[date]
		if ok && current.IsCustomized {
			continue
		}

		next := models.DailyAnnouncement{
			ID:        date,
			Date:      date,
			Periods:   append([]models.PeriodEntry{}, byDay[int(day.Weekday())]...),
			UpdatedAt: now,
		}
		if ok {
			next.Message = current.Message
		}
		doc, err := s.document(next)
		if err != nil {
			return PropagationResult{}, err
		}
		writes = append(writes, repository.DocumentWrite{Collection: audit.CollectionDailyAnnouncements, DocID: date, Op: repository.WriteSet, Data: doc})
		result.Dates = append(result.Dates, date)
	}

	if len(writes) > 0 {
		if err := s.docs.Commit(ctx, tenantID, writes); err != nil {
			return PropagationResult{}, storageError("apply schedule", err)
		}
	}
	result.Count = len(writes)

	s.appendPropagation(ctx, tenantID, actorID, audit.KindScheduleApplyFuture, result)
	return result, nil
}

// ResetFuture removes every daily announcement dated on or after from.
func (s *dailyAnnouncementService) ResetFuture(ctx context.Context, tenantID, actorID, from string) (PropagationResult, error) {
	settings, err := s.settings.Get(ctx, tenantID)
	if err != nil {
		return PropagationResult{}, err
	}
	start, err := s.windowStart(from, settings)
	if err != nil {
		return PropagationResult{}, err
	}
	startDate := start.Format(time.DateOnly)

	existing, err := s.existingByDate(ctx, tenantID)
	if err != nil {
		return PropagationResult{}, err
	}

	result := PropagationResult{From: startDate, Dates: []string{}}
	writes := make([]repository.DocumentWrite, 0, len(existing))
	for date := range existing {
		if date < startDate {
			continue
		}
		writes = append(writes, repository.DocumentWrite{Collection: audit.CollectionDailyAnnouncements, DocID: date, Op: repository.WriteDelete})
		result.Dates = append(result.Dates, date)
	}
	slices.Sort(result.Dates)

	if len(writes) > 0 {
		if err := s.docs.Commit(ctx, tenantID, writes); err != nil {
			return PropagationResult{}, storageError("reset announcements", err)
		}
	}
	result.Count = len(writes)

	s.appendPropagation(ctx, tenantID, actorID, audit.KindAnnouncementsResetFuture, result)
	return result, nil
}

func (s *dailyAnnouncementService) prepare(ctx context.Context, tenantID string, announcement models.DailyAnnouncement) (audit.Snapshot, audit.Snapshot, repository.DocumentWrite, error) {
	announcement.ID = announcement.Date
	announcement.UpdatedAt = s.now().UTC()
	if announcement.Message != nil {
		message := strings.TrimSpace(s.sanitizer.Sanitize(*announcement.Message))
		announcement.Message = &message
	}
	if announcement.Periods == nil {
		announcement.Periods = []models.PeriodEntry{}
	}
	if s.validator != nil {
		if err := s.validator.Struct(announcement); err != nil {
			return nil, nil, repository.DocumentWrite{}, err
		}
	}

	var before audit.Snapshot
	current, err := s.docs.Get(ctx, tenantID, audit.CollectionDailyAnnouncements, announcement.ID)
	switch {
	case err == nil:
		if before, err = s.codec.CaptureDocument(s.schema, current); err != nil {
			return nil, nil, repository.DocumentWrite{}, err
		}
	case errors.Is(err, repository.ErrDocumentNotFound):
	default:
		return nil, nil, repository.DocumentWrite{}, storageError("load daily announcement", err)
	}

	after, err := s.codec.Capture(announcement)
	if err != nil {
		return nil, nil, repository.DocumentWrite{}, err
	}
	doc, err := s.codec.Restore(s.schema, after)
	if err != nil {
		return nil, nil, repository.DocumentWrite{}, err
	}
	if after, err = s.codec.CaptureDocument(s.schema, doc); err != nil {
		return nil, nil, repository.DocumentWrite{}, err
	}
	write := repository.DocumentWrite{Collection: audit.CollectionDailyAnnouncements, DocID: announcement.ID, Op: repository.WriteSet, Data: doc}
	return before, after, write, nil
}

func (s *dailyAnnouncementService) document(announcement models.DailyAnnouncement) (audit.Document, error) {
	snapshot, err := s.codec.Capture(announcement)
	if err != nil {
		return nil, err
	}
	return s.codec.Restore(s.schema, snapshot)
}

func (s *dailyAnnouncementService) existingByDate(ctx context.Context, tenantID string) (map[string]models.DailyAnnouncement, error) {
	docs, err := s.docs.List(ctx, tenantID, audit.CollectionDailyAnnouncements)
	if err != nil {
		return nil, storageError("list daily announcements", err)
	}
	out := make(map[string]models.DailyAnnouncement, len(docs))
	for _, doc := range docs {
		var item models.DailyAnnouncement
		if err := audit.DecodeInto(doc, &item); err != nil {
			return nil, err
		}
		out[item.Date] = item
	}
	return out, nil
}

func (s *dailyAnnouncementService) windowStart(from string, settings models.ClassSettings) (time.Time, error) {
	if strings.TrimSpace(from) != "" {
		date, err := parseDate(from)
		if err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.DateOnly, date)
	}

	loc := time.UTC
	if settings.Timezone != "" {
		if l, err := time.LoadLocation(settings.Timezone); err == nil {
			loc = l
		}
	}
	today := s.now().In(loc).Format(time.DateOnly)
	return time.Parse(time.DateOnly, today)
}

// Propagations are logged with null states so history shows them without offering a rollback.
func (s *dailyAnnouncementService) appendPropagation(ctx context.Context, tenantID, actorID string, kind audit.Kind, result PropagationResult) {
	meta := map[string]any{"from": result.From, "count": result.Count}
	if result.Days > 0 {
		meta["days"] = result.Days
	}
	details, err := audit.SingleChange(nil, nil, meta)
	if err != nil {
		s.logger.Error().Err(err).Str("action", string(kind)).Msg("failed to build propagation log details")
		return
	}
	AppendBestEffort(ctx, s.log, s.logger, tenantID, kind, actorID, details)
}

func clampPropagationDays(days int) (int, error) {
	switch {
	case days == 0:
		return defaultPropagationDays, nil
	case days < 0 || days > maxPropagationDays:
		return 0, audit.NewError(audit.ErrValidation, "apply schedule", fmt.Errorf("days must be between 1 and %d", maxPropagationDays))
	default:
		return days, nil
	}
}

func parseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse(time.DateOnly, raw); err != nil {
		return "", audit.NewError(audit.ErrValidation, "parse date", fmt.Errorf("invalid date %q", raw))
	}
	return raw, nil
}
