package repository

import (
	"time"

	"github.com/matteohorvath/ksis/pkg/logger"
)

type gormOptions struct {
	debug         bool
	slowThreshold time.Duration
	busyTimeout   time.Duration
	useWAL        bool
	log           logger.Logger
}

// Option configures OpenSQLite.
type Option func(*gormOptions)

// WithDebug logs every SQL statement.
func WithDebug(debug bool) Option {
	return func(o *gormOptions) { o.debug = debug }
}

// WithSlowThreshold sets the duration above which a query is logged as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *gormOptions) {
		if d > 0 {
			o.slowThreshold = d
		}
	}
}

// WithBusyTimeout sets how long sqlite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *gormOptions) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// WithWAL enables write-ahead logging.
func WithWAL(enabled bool) Option {
	return func(o *gormOptions) { o.useWAL = enabled }
}

// WithLogger sets the logger used for store and SQL logs.
func WithLogger(l logger.Logger) Option {
	return func(o *gormOptions) {
		if l != nil {
			o.log = l
		}
	}
}
