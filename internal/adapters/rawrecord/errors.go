package rawrecord

import "errors"

var (
	// ErrMalformedContainer means the file is not a competition record at all.
	ErrMalformedContainer = errors.New("malformed competition record")
	// ErrNoCompetitionID means the file name carries no _<id> suffix.
	ErrNoCompetitionID = errors.New("file name has no competition id")
)
