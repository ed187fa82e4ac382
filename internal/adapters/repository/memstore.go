package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. A single mutex makes every upsert atomic.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[Kind]map[string]*Record
	nextID map[Kind]int64
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:   make(map[Kind]map[string]*Record),
		nextID: make(map[Kind]int64),
	}
}

func (s *MemoryStore) check(ctx context.Context, kind Kind) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if s.closed {
		return fmt.Errorf("%w: store closed", ErrStoreUnavailable)
	}
	if _, ok := modelFactories[kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, key Key, create, update Fields) (Handle, error) {
	if len(key.Fields) == 0 {
		return 0, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, key.Kind); err != nil {
		return 0, err
	}

	table := s.rows[key.Kind]
	if table == nil {
		table = make(map[string]*Record)
		s.rows[key.Kind] = table
	}
	k := key.String()
	if rec, ok := table[k]; ok {
		for c, v := range update {
			rec.Fields[c] = normalizeValue(v)
		}
		return rec.Handle, nil
	}

	var id int64
	if v, ok := normalizeValue(key.Fields[ColID]).(int64); ok {
		id = v
	} else {
		s.nextID[key.Kind]++
		id = s.nextID[key.Kind]
	}
	rec := &Record{Handle: Handle(id), Kind: key.Kind, Fields: Fields{ColID: id}}
	for _, src := range []Fields{create, update, key.Fields} {
		for c, v := range src {
			rec.Fields[c] = normalizeValue(v)
		}
	}
	table[k] = rec
	return rec.Handle, nil
}

// Find implements Store.
func (s *MemoryStore) Find(ctx context.Context, key Key) (Handle, error) {
	rec, err := s.FindUnique(ctx, key)
	if err != nil {
		return 0, err
	}
	return rec.Handle, nil
}

// FindUnique implements Store. Keys are exact natural keys, so at most one row matches.
func (s *MemoryStore) FindUnique(ctx context.Context, key Key) (Record, error) {
	if len(key.Fields) == 0 {
		return Record{}, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, key.Kind); err != nil {
		return Record{}, err
	}
	if rec, ok := s.rows[key.Kind][key.String()]; ok {
		return copyRecord(rec), nil
	}
	// The key may be a subset of columns or not the declared natural key.
	var found []*Record
	for _, rec := range s.rows[key.Kind] {
		if matches(rec, key.Fields) {
			found = append(found, rec)
		}
	}
	switch len(found) {
	case 0:
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	case 1:
		return copyRecord(found[0]), nil
	default:
		return Record{}, fmt.Errorf("%w: %s", ErrNotUnique, key)
	}
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, kind Kind, where Fields) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, kind); err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range s.rows[kind] {
		if matches(rec, where) {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}

// Count returns the number of rows of kind.
func (s *MemoryStore) Count(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows[kind])
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func matches(rec *Record, where Fields) bool {
	for c, v := range where {
		if !reflect.DeepEqual(rec.Fields[c], normalizeValue(v)) {
			return false
		}
	}
	return true
}

func copyRecord(rec *Record) Record {
	f := make(Fields, len(rec.Fields))
	for c, v := range rec.Fields {
		f[c] = v
	}
	return Record{Handle: rec.Handle, Kind: rec.Kind, Fields: f}
}
