package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrStale     = errors.New("record changed concurrently")
)

// RollbackError is returned when a unit of work failed and undoing its writes failed too.
// Rows written before the failure may still be present.
type RollbackError struct {
	Cause       error
	RollbackErr error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: %v (original error: %v)", e.RollbackErr, e.Cause)
}

func (e *RollbackError) Unwrap() error {
	return e.Cause
}
