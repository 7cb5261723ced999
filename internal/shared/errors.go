package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a missing or malformed request filter.
	ErrValidation = errors.New("validation failed")
	// ErrDataSource indicates the underlying query failed.
	ErrDataSource = errors.New("data source unavailable")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
)
