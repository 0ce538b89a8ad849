package catalog

import "errors"

var (
	// ErrNotFound indicates the requested movie doesn't exist.
	ErrNotFound = errors.New("movie not found")

	// ErrUnavailable wraps any storage failure on the read path.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrDuplicate indicates a unique constraint violation (slug).
	ErrDuplicate = errors.New("duplicate entry")

	// ErrConstraint indicates a foreign key or check constraint violation.
	ErrConstraint = errors.New("constraint violation")
)
