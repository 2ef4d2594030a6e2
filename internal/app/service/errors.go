package service

import (
	"errors"

	"github.com/mrops-br/products-api/internal/domain"
)

// ErrNotFound is the transport-neutral signal for a missing resource.
var ErrNotFound = errors.New("resource not found")

// NotFoundError carries the message shown to clients and the storage error it came from.
type NotFoundError struct {
	Message string
	err     error
}

func (e *NotFoundError) Error() string { return e.Message }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return e.err }

// translate maps repository failures onto service errors. Anything that is
// not a missing product is returned unchanged.
func translate(err error) error {
	if errors.Is(err, domain.ErrProductNotFound) {
		return &NotFoundError{Message: err.Error(), err: err}
	}
	return err
}

// result classifies an error for the operations counter.
func result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "failure"
	}
}
