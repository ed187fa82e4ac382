package ingest

import (
	"github.com/matteohorvath/ksis/pkg/logger"
)

// Default orchestrator settings.
const (
	defaultPlaceholder      = '.'
	defaultRoundParallelism = 4
	defaultMaxStoreFailures = 50
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithPlaceholder sets the mark character meaning "no mark".
func WithPlaceholder(r rune) Option {
	return func(o *Orchestrator) {
		if r != 0 {
			o.placeholder = r
		}
	}
}

// WithRoundParallelism bounds rounds processed concurrently within one competition.
func WithRoundParallelism(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.roundParallelism = n
		}
	}
}

// WithMaxStoreFailures sets how many consecutive store failures are tolerated.
func WithMaxStoreFailures(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxStoreFailures = int64(n)
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}
