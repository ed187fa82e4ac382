package reconcile

import (
	"time"

	"github.com/matteohorvath/ksis/pkg/logger"
)

// CouplePolicy selects the natural key of a couple.
type CouplePolicy int

const (
	// CoupleByName identifies a couple by its normalized name only.
	CoupleByName CouplePolicy = iota
	// CoupleByNameClub identifies a couple by name and club.
	CoupleByNameClub
)

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithTimeout bounds every store call.
func WithTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithCouplePolicy sets how couples are deduplicated.
func WithCouplePolicy(p CouplePolicy) Option {
	return func(r *Reconciler) {
		r.couples = p
	}
}

// WithLogger overrides the component logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}
