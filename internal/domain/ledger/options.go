package ledger

// Option applies a configuration option to the in-memory ledger.
type Option func(*inMemoryLedger)

// WithCapacityHint pre-sizes the ledger for an expected number of competitions.
func WithCapacityHint(n int) Option {
	return func(l *inMemoryLedger) {
		if n > 0 {
			l.capacity = n
		}
	}
}
