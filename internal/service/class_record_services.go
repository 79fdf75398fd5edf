package service

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

// NewSubjectService builds the subject CRUD service.
func NewSubjectService(docs repository.DocumentRepository, log ActionLogger, validate *validator.Validate, logger zerolog.Logger) RecordService[models.Subject] {
	kinds := RecordKinds{Create: audit.KindSubjectCreate, Update: audit.KindSubjectUpdate, Delete: audit.KindSubjectDelete}
	return NewRecordService[models.Subject](docs, log, audit.CollectionSubjects, kinds, func(s *models.Subject, id string, now time.Time) {
		s.ID = id
		s.Name = strings.TrimSpace(s.Name)
		s.TeacherName = strings.TrimSpace(s.TeacherName)
		s.Room = trimOptional(s.Room)
		s.Color = trimOptional(s.Color)
		s.UpdatedAt = now
	}, validate, logger)
}

// NewEventService builds the calendar event CRUD service.
func NewEventService(docs repository.DocumentRepository, log ActionLogger, validate *validator.Validate, logger zerolog.Logger) RecordService[models.Event] {
	kinds := RecordKinds{Create: audit.KindEventCreate, Update: audit.KindEventUpdate, Delete: audit.KindEventDelete}
	return NewRecordService[models.Event](docs, log, audit.CollectionEvents, kinds, func(e *models.Event, id string, now time.Time) {
		e.ID = id
		e.Title = strings.TrimSpace(e.Title)
		e.Description = trimOptional(e.Description)
		e.Location = trimOptional(e.Location)
		if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
			e.EndsAt = nil
		}
		e.UpdatedAt = now
	}, validate, logger)
}

// NewGeneralAnnouncementService builds the class notice CRUD service. Bodies are sanitized HTML.
func NewGeneralAnnouncementService(docs repository.DocumentRepository, log ActionLogger, validate *validator.Validate, logger zerolog.Logger) RecordService[models.GeneralAnnouncement] {
	policy := bluemonday.UGCPolicy()
	kinds := RecordKinds{
		Create: audit.KindGeneralAnnouncementCreate,
		Update: audit.KindGeneralAnnouncementUpdate,
		Delete: audit.KindGeneralAnnouncementDelete,
	}
	return NewRecordService[models.GeneralAnnouncement](docs, log, audit.CollectionGeneralAnnouncements, kinds, func(a *models.GeneralAnnouncement, id string, now time.Time) {
		a.ID = id
		a.Title = strings.TrimSpace(a.Title)
		a.Body = strings.TrimSpace(policy.Sanitize(a.Body))
		if a.PublishedAt.IsZero() {
			a.PublishedAt = now
		}
		a.UpdatedAt = now
	}, validate, logger)
}

// NewAssignmentService builds the homework CRUD service.
func NewAssignmentService(docs repository.DocumentRepository, log ActionLogger, validate *validator.Validate, logger zerolog.Logger) RecordService[models.Assignment] {
	kinds := RecordKinds{Create: audit.KindAssignmentCreate, Update: audit.KindAssignmentUpdate, Delete: audit.KindAssignmentDelete}
	return NewRecordService[models.Assignment](docs, log, audit.CollectionAssignments, kinds, func(a *models.Assignment, id string, now time.Time) {
		a.ID = id
		a.Title = strings.TrimSpace(a.Title)
		a.SubjectID = trimOptional(a.SubjectID)
		a.Description = trimOptional(a.Description)
		if a.Status == "" {
			a.Status = "assigned"
		}
		a.UpdatedAt = now
	}, validate, logger)
}

// trimOptional trims the value and turns blank strings into nil so snapshots record an explicit null.
func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
