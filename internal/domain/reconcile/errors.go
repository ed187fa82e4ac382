package reconcile

import (
	"context"
	"errors"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
)

var (
	// ErrMissingPrerequisite means a dependent row was skipped because the
	// entity it references does not exist.
	ErrMissingPrerequisite = errors.New("missing prerequisite entity")
	// ErrInvalidKey means a natural key normalized to nothing.
	ErrInvalidKey = errors.New("invalid natural key")
)

// IsStoreFailure reports whether err came from the store layer rather than
// from the data: unavailability, driver errors and timeouts.
func IsStoreFailure(err error) bool {
	return errors.Is(err, repository.ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
