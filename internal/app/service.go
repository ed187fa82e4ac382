// Package service wires the store, the reconciler and the ingestion
// orchestrator into one runnable application.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/http/api"
	"github.com/matteohorvath/ksis/internal/adapters/http/swagger"
	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/internal/config"
	"github.com/matteohorvath/ksis/internal/domain/hierarchy"
	"github.com/matteohorvath/ksis/internal/domain/ingest"
	"github.com/matteohorvath/ksis/internal/domain/reconcile"
	"github.com/matteohorvath/ksis/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Service owns the store and runs ingestions and the read-only API over it.
type Service struct {
	cfg    *config.Config
	store  *repository.GormStore
	hier   *hierarchy.Hierarchy
	rec    *reconcile.Reconciler
	logger logger.Logger

	mu      sync.RWMutex
	running bool
	runs    int
	last    *ingest.Report
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore uses an already opened store instead of opening cfg.DatabasePath.
func WithStore(store *repository.GormStore) Option {
	return func(s *Service) { s.store = store }
}

// WithHierarchy overrides the round hierarchy built from the configuration.
func WithHierarchy(h *hierarchy.Hierarchy) Option {
	return func(s *Service) { s.hier = h }
}

// New validates cfg, opens the store and builds the reconciler.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{cfg: cfg, logger: logger.Named("service")}
	for _, opt := range opts {
		opt(s)
	}

	if s.hier == nil {
		h, err := NewHierarchy(cfg.RoundLevels)
		if err != nil {
			return nil, err
		}
		s.hier = h
	}

	if s.store == nil {
		store, err := repository.OpenSQLite(ctx, cfg.DatabasePath,
			repository.WithDebug(cfg.DatabaseDebug),
			repository.WithSlowThreshold(cfg.SlowQueryThreshold()),
			repository.WithWAL(cfg.DatabasePath != ":memory:"),
			repository.WithLogger(logger.Named("store")),
		)
		if err != nil {
			return nil, err
		}
		s.store = store
	}

	policy := reconcile.CoupleByName
	if cfg.CoupleKey == config.CoupleKeyNameClub {
		policy = reconcile.CoupleByNameClub
	}
	s.rec = reconcile.New(s.store,
		reconcile.WithTimeout(cfg.StoreTimeout),
		reconcile.WithCouplePolicy(policy),
		reconcile.WithLogger(logger.Named("reconcile")),
	)

	s.logger.Info(ctx, "service ready",
		logger.String("database", cfg.DatabasePath),
		logger.Int("round_levels", s.hier.Len()),
		logger.String("couple_key", cfg.CoupleKey),
	)
	return s, nil
}

// NewHierarchy builds the round hierarchy from configured levels, or the
// built-in table when none are configured.
func NewHierarchy(levels []config.RoundLevel) (*hierarchy.Hierarchy, error) {
	if len(levels) == 0 {
		return hierarchy.Default(), nil
	}
	out := make([]hierarchy.Level, len(levels))
	for i, lvl := range levels {
		out[i] = hierarchy.Level{Rank: lvl.Rank, Names: lvl.Names}
	}
	h, err := hierarchy.New(out)
	if err != nil {
		return nil, fmt.Errorf("round_levels: %w", err)
	}
	return h, nil
}

// Store returns the underlying store.
func (s *Service) Store() *repository.GormStore { return s.store }

// Hierarchy returns the round hierarchy in use.
func (s *Service) Hierarchy() *hierarchy.Hierarchy { return s.hier }

// LastReport returns the report of the most recent ingestion, if any.
func (s *Service) LastReport() (*ingest.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}

// Serve runs the read-only HTTP API until ctx is done, then shuts it down
// gracefully.
func (s *Service) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(s.store, s.hier, s).Register(ctx, mux)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting HTTP server", logger.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%w: %w", ErrServe, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error(ctx, "server shutdown failed", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrServe, err)
	}
	s.logger.Info(ctx, "server stopped")
	return nil
}

// Stop closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info(ctx, "stopping service...")
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// GetStats returns service statistics and the totals of the last run.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"running":          s.running,
		"runs":             s.runs,
		"workerCount":      s.cfg.WorkerCount,
		"queueSize":        s.cfg.QueueSize,
		"roundParallelism": s.cfg.RoundParallelism,
	}
	if s.last != nil {
		stats["lastRun"] = map[string]interface{}{
			"runId":      s.last.RunID.String(),
			"startedAt":  s.last.StartedAt,
			"finishedAt": s.last.FinishedAt,
			"totals":     s.last.Totals,
		}
	}
	return stats
}
