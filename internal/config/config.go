// Package config defines the ingestion engine configuration and its loader.
//
// Conventions:
// - New returns a Config filled with defaults.
// - Load layers defaults, an optional YAML file and KSIS_* env vars.
// - Validate reports problems as wrapped sentinel errors from errors.go.
package config

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Couple identity policies.
const (
	CoupleKeyName     = "name"
	CoupleKeyNameClub = "name_club"
)

// RoundLevel is one rank of the round hierarchy and every label that denotes it.
type RoundLevel struct {
	Rank  int      `koanf:"rank"`
	Names []string `koanf:"names"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// DatabasePath is the sqlite file; ":memory:" keeps everything in process.
	DatabasePath string `koanf:"database_path"`
	// DatabaseDebug logs every SQL statement.
	DatabaseDebug bool `koanf:"database_debug"`
	// SlowQueryMS marks queries slower than this as slow in the SQL log.
	SlowQueryMS int `koanf:"slow_query_ms"`

	// DataDir holds marks-detail files named *_<id>.json or *_<id>.html.
	DataDir string `koanf:"data_dir"`
	// ResultsDir holds competition results files named *_<id>.json.
	ResultsDir string `koanf:"results_dir"`

	// WorkerCount is the number of competitions ingested in parallel.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the competition job queue.
	QueueSize int `koanf:"queue_size"`
	// RoundParallelism bounds rounds processed concurrently inside one competition.
	RoundParallelism int `koanf:"round_parallelism"`
	// StoreTimeout bounds every single store call.
	StoreTimeout time.Duration `koanf:"store_timeout"`
	// MaxStoreFailures aborts a run after this many consecutive store failures.
	MaxStoreFailures int `koanf:"max_store_failures"`

	// NoMarkPlaceholder is the mark character meaning "judge gave no mark".
	NoMarkPlaceholder string `koanf:"no_mark_placeholder"`
	// CoupleKey selects couple identity: "name" or "name_club".
	CoupleKey string `koanf:"couple_key"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RoundLevels overrides the built-in round hierarchy when non-empty.
	RoundLevels []RoundLevel `koanf:"round_levels"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		DatabasePath:      "ksis.db",
		SlowQueryMS:       200,
		DataDir:           "competition_data",
		ResultsDir:        "competition_data/results",
		WorkerCount:       4,
		QueueSize:         1024,
		RoundParallelism:  4,
		StoreTimeout:      5 * time.Second,
		MaxStoreFailures:  50,
		NoMarkPlaceholder: ".",
		CoupleKey:         CoupleKeyName,
		Addr:              ":9080",
	}
}

// Placeholder returns the no-mark placeholder as a rune.
func (c *Config) Placeholder() rune {
	r, _ := utf8.DecodeRuneInString(c.NoMarkPlaceholder)
	return r
}

// SlowQueryThreshold returns SlowQueryMS as a duration.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatabasePath == "":
		return fmt.Errorf("%w: database_path must not be empty", ErrInvalidConfig)
	case c.DataDir == "" || c.ResultsDir == "":
		return fmt.Errorf("%w: data_dir and results_dir must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.RoundParallelism <= 0:
		return fmt.Errorf("%w: round_parallelism must be positive, got %d", ErrInvalidConfig, c.RoundParallelism)
	case c.StoreTimeout <= 0:
		return fmt.Errorf("%w: store_timeout must be positive, got %s", ErrInvalidConfig, c.StoreTimeout)
	case c.MaxStoreFailures <= 0:
		return fmt.Errorf("%w: max_store_failures must be positive, got %d", ErrInvalidConfig, c.MaxStoreFailures)
	case utf8.RuneCountInString(c.NoMarkPlaceholder) != 1:
		return fmt.Errorf("%w: %q", ErrInvalidPlaceholder, c.NoMarkPlaceholder)
	case c.CoupleKey != CoupleKeyName && c.CoupleKey != CoupleKeyNameClub:
		return fmt.Errorf("%w: %q", ErrInvalidCoupleKey, c.CoupleKey)
	}
	return nil
}
