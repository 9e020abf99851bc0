// Package service holds helpers shared by the domain services.
package service

import (
	"errors"
	"fmt"

	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

// StoreError maps a repository error to the error taxonomy returned to callers. Errors that
// are already AppErrors pass through.
func StoreError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var rbErr *repository.RollbackError
	if errors.As(err, &rbErr) {
		return apperrors.Integrity(fmt.Sprintf("%s could not be rolled back", resource), err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict(fmt.Sprintf("%s already exists", resource), err)
	case errors.Is(err, repository.ErrStale):
		return apperrors.Conflict(fmt.Sprintf("%s was changed by someone else, reload and retry", resource), err)
	default:
		return apperrors.Transient(err)
	}
}
