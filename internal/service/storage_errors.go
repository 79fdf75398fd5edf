package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/repository"
)

// storageError classifies repository failures into the audit error taxonomy.
func storageError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case audit.Classify(err) != nil:
		return err
	case errors.Is(err, repository.ErrDocumentNotFound),
		errors.Is(err, repository.ErrActionLogNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return audit.NewError(audit.ErrNotFound, op, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return audit.NewError(audit.ErrStorageUnavailable, op, err)
	}
}
