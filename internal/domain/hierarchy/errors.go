package hierarchy

import "errors"

// Sentinel errors returned by New.
var (
	ErrDuplicateRank = errors.New("duplicate round rank")
	ErrDuplicateName = errors.New("round name listed under two ranks")
	ErrEmptyName     = errors.New("empty round name")
	ErrNoLevels      = errors.New("round hierarchy has no levels")
)
