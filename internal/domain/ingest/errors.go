package ingest

import "errors"

// ErrStoreDegraded means store calls kept failing past the configured
// threshold; the caller should abort the run.
var ErrStoreDegraded = errors.New("store failing pervasively")
