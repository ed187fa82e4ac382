package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrLoadConfig         = errors.New("load config failed")
	ErrInvalidPlaceholder = errors.New("no_mark_placeholder must be exactly one character")
	ErrInvalidCoupleKey   = errors.New("couple_key must be name or name_club")
)
