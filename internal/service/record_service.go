package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

// ErrRecordNotFound indicates the requested class record does not exist.
var ErrRecordNotFound = errors.New("record not found")

// RecordKinds names the action kinds logged for each write of a collection.
type RecordKinds struct {
	Create audit.Kind
	Update audit.Kind
	Delete audit.Kind
}

// RecordPreparer stamps identifiers and timestamps and normalizes user input before a write.
type RecordPreparer[T audit.Record] func(record *T, id string, now time.Time)

// RecordService is the thin CRUD layer over one collection of the document store.
type RecordService[T audit.Record] interface {
	List(ctx context.Context, tenantID string) ([]T, error)
	Get(ctx context.Context, tenantID, id string) (T, error)
	Create(ctx context.Context, tenantID, actorID string, record T) (T, error)
	Update(ctx context.Context, tenantID, actorID, id string, record T) (T, error)
	Delete(ctx context.Context, tenantID, actorID, id string) error
}

type recordService[T audit.Record] struct {
	docs      repository.DocumentRepository
	log       ActionLogger
	schema    audit.Schema
	kinds     RecordKinds
	prepare   RecordPreparer[T]
	validator *validator.Validate
	codec     audit.Codec
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRecordService constructs a CRUD service for collection, logging every write through log.
func NewRecordService[T audit.Record](docs repository.DocumentRepository, log ActionLogger, collection audit.Collection, kinds RecordKinds, prepare RecordPreparer[T], validate *validator.Validate, logger zerolog.Logger) RecordService[T] {
	schema, ok := audit.SchemaFor(collection)
	if !ok {
		panic(fmt.Sprintf("no snapshot schema registered for %s", collection))
	}
	return &recordService[T]{
		docs:      docs,
		log:       log,
		schema:    schema,
		kinds:     kinds,
		prepare:   prepare,
		validator: validate,
		codec:     audit.DefaultCodec,
		logger:    logger.With().Str("component", string(collection)+"_service").Logger(),
		now:       time.Now,
	}
}

func (s *recordService[T]) List(ctx context.Context, tenantID string) ([]T, error) {
	docs, err := s.docs.List(ctx, tenantID, s.schema.Collection)
	if err != nil {
		return nil, storageError("list "+string(s.schema.Collection), err)
	}

	records := make([]T, 0, len(docs))
	for _, doc := range docs {
		var record T
		if err := audit.DecodeInto(doc, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *recordService[T]) Get(ctx context.Context, tenantID, id string) (T, error) {
	var record T
	doc, err := s.load(ctx, tenantID, id)
	if err != nil {
		return record, err
	}
	err = audit.DecodeInto(doc, &record)
	return record, err
}

func (s *recordService[T]) Create(ctx context.Context, tenantID, actorID string, record T) (T, error) {
	var zero T
	if s.prepare != nil {
		s.prepare(&record, uuid.NewString(), s.now().UTC())
	}
	if err := s.validate(record); err != nil {
		return zero, err
	}

	after, err := s.codec.Capture(record)
	if err != nil {
		return zero, err
	}
	stored, saved, err := s.write(ctx, tenantID, after.ID(), after)
	if err != nil {
		return zero, err
	}

	s.append(ctx, tenantID, s.kinds.Create, actorID, nil, stored)
	return saved, nil
}

func (s *recordService[T]) Update(ctx context.Context, tenantID, actorID, id string, record T) (T, error) {
	var zero T
	current, err := s.load(ctx, tenantID, id)
	if err != nil {
		return zero, err
	}
	before, err := s.codec.CaptureDocument(s.schema, current)
	if err != nil {
		return zero, err
	}

	if s.prepare != nil {
		s.prepare(&record, id, s.now().UTC())
	}
	if err := s.validate(record); err != nil {
		return zero, err
	}
	after, err := s.codec.Capture(record)
	if err != nil {
		return zero, err
	}
	if after.ID() != id {
		return zero, audit.NewError(audit.ErrValidation, "update "+string(s.schema.Collection), fmt.Errorf("record id %q does not match %q", after.ID(), id))
	}

	stored, saved, err := s.write(ctx, tenantID, id, after)
	if err != nil {
		return zero, err
	}

	s.append(ctx, tenantID, s.kinds.Update, actorID, before, stored)
	return saved, nil
}

func (s *recordService[T]) Delete(ctx context.Context, tenantID, actorID, id string) error {
	current, err := s.load(ctx, tenantID, id)
	if err != nil {
		return err
	}
	before, err := s.codec.CaptureDocument(s.schema, current)
	if err != nil {
		return err
	}

	write := repository.DocumentWrite{Collection: s.schema.Collection, DocID: id, Op: repository.WriteDelete}
	if err := s.docs.Commit(ctx, tenantID, []repository.DocumentWrite{write}); err != nil {
		return storageError("delete "+string(s.schema.Collection), err)
	}

	s.append(ctx, tenantID, s.kinds.Delete, actorID, before, nil)
	return nil
}

func (s *recordService[T]) load(ctx context.Context, tenantID, id string) (audit.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, audit.NewError(audit.ErrValidation, "load "+string(s.schema.Collection), fmt.Errorf("id is required"))
	}
	doc, err := s.docs.Get(ctx, tenantID, s.schema.Collection, id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, audit.NewError(audit.ErrNotFound, "load "+string(s.schema.Collection), ErrRecordNotFound)
		}
		return nil, storageError("load "+string(s.schema.Collection), err)
	}
	return doc, nil
}

// write stores snapshot and returns what was stored, with mandatory timestamps filled in.
func (s *recordService[T]) write(ctx context.Context, tenantID, id string, snapshot audit.Snapshot) (audit.Snapshot, T, error) {
	var saved T
	doc, err := s.codec.Restore(s.schema, snapshot)
	if err != nil {
		return nil, saved, err
	}
	stored, err := s.codec.CaptureDocument(s.schema, doc)
	if err != nil {
		return nil, saved, err
	}
	if err := audit.DecodeInto(doc, &saved); err != nil {
		return nil, saved, err
	}

	write := repository.DocumentWrite{Collection: s.schema.Collection, DocID: id, Op: repository.WriteSet, Data: doc}
	if err := s.docs.Commit(ctx, tenantID, []repository.DocumentWrite{write}); err != nil {
		return nil, saved, storageError("write "+string(s.schema.Collection), err)
	}
	return stored, saved, nil
}

func (s *recordService[T]) validate(record T) error {
	if s.validator == nil {
		return nil
	}
	return s.validator.Struct(record)
}

func (s *recordService[T]) append(ctx context.Context, tenantID string, kind audit.Kind, actorID string, before, after audit.Snapshot) {
	details, err := audit.SingleChange(before, after, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("action", string(kind)).Msg("failed to build action log details")
		return
	}
	AppendBestEffort(ctx, s.log, s.logger, tenantID, kind, actorID, details)
}
