package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound         = errors.New("record not found")
	ErrNotUnique        = errors.New("natural key matched more than one record")
	ErrUnknownKind      = errors.New("unknown entity kind")
	ErrEmptyKey         = errors.New("natural key has no columns")
	ErrStoreUnavailable = errors.New("store unavailable")
)
