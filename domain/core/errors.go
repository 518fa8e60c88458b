package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound        = errors.New("resource not found")
	ErrDatasetNotFound = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrColumnNotFound  = fmt.Errorf("%w: column", ErrNotFound)

	ErrInvalidArgument = errors.New("invalid argument")
	ErrTypeMismatch    = errors.New("column type mismatch")
	ErrEmptyValues     = errors.New("no values to aggregate")
	ErrUnknownOperator = errors.New("unknown formula operator")
)

// NewNotFoundError returns an ErrNotFound wrapping error naming the resource
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// IsNotFoundError reports whether err wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
