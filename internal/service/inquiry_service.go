package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

// InquiryService manages inquiry threads raised to class administrators.
type InquiryService interface {
	List(ctx context.Context, tenantID, status string) ([]models.Inquiry, error)
	Get(ctx context.Context, tenantID, id string) (models.Inquiry, error)
	Create(ctx context.Context, tenantID, actorID string, inquiry models.Inquiry) (models.Inquiry, error)
	UpdateStatus(ctx context.Context, tenantID, actorID, id, status string) (models.Inquiry, error)
	Delete(ctx context.Context, tenantID, actorID, id string) error
	AddMessage(ctx context.Context, tenantID, actorID, inquiryID, body string) (models.InquiryMessage, error)
	ListMessages(ctx context.Context, tenantID, inquiryID string) ([]models.InquiryMessage, error)
	DeleteMessage(ctx context.Context, tenantID, actorID, inquiryID, messageID string) error
}

type inquiryService struct {
	inquiries RecordService[models.Inquiry]
	messages  RecordService[models.InquiryMessage]
}

// NewInquiryService composes CRUD services for inquiries and their messages.
func NewInquiryService(docs repository.DocumentRepository, log ActionLogger, validate *validator.Validate, logger zerolog.Logger) InquiryService {
	policy := bluemonday.StrictPolicy()

	inquiryKinds := RecordKinds{Create: audit.KindInquiryCreate, Update: audit.KindInquiryUpdate, Delete: audit.KindInquiryDelete}
	inquiries := NewRecordService[models.Inquiry](docs, log, audit.CollectionInquiries, inquiryKinds, func(q *models.Inquiry, id string, now time.Time) {
		q.ID = id
		q.Title = strings.TrimSpace(q.Title)
		q.Body = strings.TrimSpace(policy.Sanitize(q.Body))
		q.Category = strings.TrimSpace(q.Category)
		if q.Status == "" {
			q.Status = models.InquiryStatusOpen
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		q.UpdatedAt = now
	}, validate, logger)

	messageKinds := RecordKinds{Create: audit.KindInquiryMessageCreate, Delete: audit.KindInquiryMessageDelete}
	messages := NewRecordService[models.InquiryMessage](docs, log, audit.CollectionInquiryMessages, messageKinds, func(m *models.InquiryMessage, id string, now time.Time) {
		m.ID = id
		m.Body = strings.TrimSpace(policy.Sanitize(m.Body))
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
	}, validate, logger)

	return &inquiryService{inquiries: inquiries, messages: messages}
}

func (s *inquiryService) List(ctx context.Context, tenantID, status string) ([]models.Inquiry, error) {
	items, err := s.inquiries.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return items, nil
	}
	filtered := make([]models.Inquiry, 0, len(items))
	for _, item := range items {
		if item.Status == status {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (s *inquiryService) Get(ctx context.Context, tenantID, id string) (models.Inquiry, error) {
	return s.inquiries.Get(ctx, tenantID, id)
}

func (s *inquiryService) Create(ctx context.Context, tenantID, actorID string, inquiry models.Inquiry) (models.Inquiry, error) {
	inquiry.AuthorID = normalizeActor(actorID)
	inquiry.Status = models.InquiryStatusOpen
	inquiry.CreatedAt = time.Time{}
	return s.inquiries.Create(ctx, tenantID, actorID, inquiry)
}

func (s *inquiryService) UpdateStatus(ctx context.Context, tenantID, actorID, id, status string) (models.Inquiry, error) {
	switch status {
	case models.InquiryStatusOpen, models.InquiryStatusInProgress, models.InquiryStatusResolved:
	default:
		return models.Inquiry{}, audit.NewError(audit.ErrValidation, "update inquiry", fmt.Errorf("unknown status %q", status))
	}

	current, err := s.inquiries.Get(ctx, tenantID, id)
	if err != nil {
		return models.Inquiry{}, err
	}
	current.Status = status
	return s.inquiries.Update(ctx, tenantID, actorID, id, current)
}

func (s *inquiryService) Delete(ctx context.Context, tenantID, actorID, id string) error {
	return s.inquiries.Delete(ctx, tenantID, actorID, id)
}

func (s *inquiryService) AddMessage(ctx context.Context, tenantID, actorID, inquiryID, body string) (models.InquiryMessage, error) {
	if _, err := s.inquiries.Get(ctx, tenantID, inquiryID); err != nil {
		return models.InquiryMessage{}, err
	}
	message := models.InquiryMessage{
		InquiryID: inquiryID,
		AuthorID:  normalizeActor(actorID),
		Body:      body,
	}
	return s.messages.Create(ctx, tenantID, actorID, message)
}

func (s *inquiryService) ListMessages(ctx context.Context, tenantID, inquiryID string) ([]models.InquiryMessage, error) {
	if _, err := s.inquiries.Get(ctx, tenantID, inquiryID); err != nil {
		return nil, err
	}
	all, err := s.messages.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	thread := make([]models.InquiryMessage, 0, len(all))
	for _, message := range all {
		if message.InquiryID == inquiryID {
			thread = append(thread, message)
		}
	}
	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].CreatedAt.Before(thread[j].CreatedAt)
	})
	return thread, nil
}

func (s *inquiryService) DeleteMessage(ctx context.Context, tenantID, actorID, inquiryID, messageID string) error {
	message, err := s.messages.Get(ctx, tenantID, messageID)
	if err != nil {
		return err
	}
	if message.InquiryID != inquiryID {
		return audit.NewError(audit.ErrNotFound, "delete inquiry message", ErrRecordNotFound)
	}
	return s.messages.Delete(ctx, tenantID, actorID, messageID)
}
