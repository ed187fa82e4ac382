package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

func invalidParam(name string) error {
	return fmt.Errorf("%w: invalid %s", ErrBadRequest, name)
}

func missingParam(name string) error {
	return fmt.Errorf("%w: missing %s", ErrBadRequest, name)
}
