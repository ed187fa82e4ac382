// Package ledger tracks, for one ingestion run, which raw files were already
// taken and the furthest stage each competition reached.
package ledger

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/matteohorvath/ksis/internal/domain/model"
)

// Ledger is safe for concurrent use by the ingestion workers.
type Ledger interface {
	// SeenAndRecord atomically checks if source was taken and records it if not.
	// Returns true if it was already taken.
	SeenAndRecord(ctx context.Context, source string) bool

	// Unrecord releases source so a later pass can take it again.
	Unrecord(ctx context.Context, source string)

	// Advance moves a competition to stage. It never moves backwards and
	// reports whether the stage changed. StageFailed is not recorded.
	Advance(ctx context.Context, id model.CompetitionID, stage model.Stage) bool

	// Stage returns the furthest stage recorded for id in this run.
	Stage(ctx context.Context, id model.CompetitionID) (model.Stage, bool)

	// Size is the number of competitions with a recorded stage.
	Size() int64
}

type inMemoryLedger struct {
	mu       sync.RWMutex
	sources  map[string]struct{}
	stages   map[model.CompetitionID]model.Stage
	capacity int
	size     atomic.Int64
}

// NewInMemoryLedger creates an empty ledger.
func NewInMemoryLedger(opts ...Option) Ledger {
	l := &inMemoryLedger{capacity: 64}
	for _, opt := range opts {
		opt(l)
	}
	l.sources = make(map[string]struct{}, l.capacity)
	l.stages = make(map[model.CompetitionID]model.Stage, l.capacity)
	return l
}

func (l *inMemoryLedger) SeenAndRecord(_ context.Context, source string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sources[source]; ok {
		return true
	}
	l.sources[source] = struct{}{}
	return false
}

func (l *inMemoryLedger) Unrecord(_ context.Context, source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sources, source)
}

func (l *inMemoryLedger) Advance(_ context.Context, id model.CompetitionID, stage model.Stage) bool {
	if stage == model.StageFailed {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.stages[id]
	if ok && cur >= stage {
		return false
	}
	if !ok {
		l.size.Add(1)
	}
	l.stages[id] = stage
	return true
}

func (l *inMemoryLedger) Stage(_ context.Context, id model.CompetitionID) (model.Stage, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.stages[id]
	return s, ok
}

func (l *inMemoryLedger) Size() int64 {
	return l.size.Load()
}
