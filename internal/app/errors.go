package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrIngestRunning = errors.New("an ingestion is already running")
	ErrServe         = errors.New("http serve failed")
)
