package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before reaching storage.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates that no task exists with the requested id.
	ErrNotFound = errors.New("todo not found")
	// ErrStorage wraps unexpected persistence failures.
	ErrStorage = errors.New("storage failure")
	// ErrConflict is returned when inserting an id that already exists.
	ErrConflict = fmt.Errorf("%w: id already exists", ErrStorage)
	// ErrUnauthorized indicates rejected credentials.
	ErrUnauthorized = errors.New("invalid credentials")
)

var (
	ErrContentRequired = fmt.Errorf("%w: content is required", ErrValidation)
	ErrContentEmpty    = fmt.Errorf("%w: content cannot be empty", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid status", ErrValidation)
	ErrIDRequired      = fmt.Errorf("%w: id is required", ErrValidation)
)
