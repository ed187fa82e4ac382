// Package reconcile upserts normalized entities by natural key so that any
// number of ingestions of the same data leave one row per key.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/pkg/logger"
	"github.com/matteohorvath/ksis/pkg/metrics"
)

const defaultTimeout = 5 * time.Second

// Reconciler wraps a repository.Store with per-call timeouts, metrics and
// typed key builders. It is safe for concurrent use when the store is.
type Reconciler struct {
	store   repository.Store
	timeout time.Duration
	couples CouplePolicy
	log     logger.Logger
}

// New creates a Reconciler over store.
func New(store repository.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:   store,
		timeout: defaultTimeout,
		couples: CoupleByName,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("reconcile")
	}
	return r
}

// Store returns the underlying store.
func (r *Reconciler) Store() repository.Store { return r.store }

// Upsert creates or refreshes the row for key. create applies on first
// sight only; update applies on every call.
func (r *Reconciler) Upsert(ctx context.Context, key repository.Key, create, update repository.Fields) (repository.Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	h, err := r.store.Upsert(ctx, key, create, update)
	metrics.RecordStoreCall("upsert", time.Since(start), err)
	if err != nil {
		r.log.Debug(ctx, "upsert failed", logger.String("key", key.String()), logger.Error(err))
		return 0, fmt.Errorf("upsert %s: %w", key, err)
	}
	metrics.RecordEntityUpserted(string(key.Kind))
	return h, nil
}

// Find returns the handle of key or repository.ErrNotFound.
func (r *Reconciler) Find(ctx context.Context, key repository.Key) (repository.Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	h, err := r.store.Find(ctx, key)
	metrics.RecordStoreCall("find", time.Since(start), storeFailure(err))
	if err != nil {
		return 0, fmt.Errorf("find %s: %w", key, err)
	}
	return h, nil
}

// FindUnique returns the row of key, repository.ErrNotFound or repository.ErrNotUnique.
func (r *Reconciler) FindUnique(ctx context.Context, key repository.Key) (repository.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	rec, err := r.store.FindUnique(ctx, key)
	metrics.RecordStoreCall("find_unique", time.Since(start), storeFailure(err))
	if err != nil {
		return repository.Record{}, fmt.Errorf("find unique %s: %w", key, err)
	}
	return rec, nil
}

// List returns the rows of kind matching where.
func (r *Reconciler) List(ctx context.Context, kind repository.Kind, where repository.Fields) ([]repository.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	recs, err := r.store.List(ctx, kind, where)
	metrics.RecordStoreCall("list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return recs, nil
}

// storeFailure hides lookup misses from the store error metric.
func storeFailure(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
