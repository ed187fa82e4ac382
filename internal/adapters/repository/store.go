// Package repository persists the normalized competition model behind a
// kind-agnostic natural-key Store.
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Handle is the internal id of a stored row.
type Handle int64

// Fields maps column names to values.
type Fields map[string]any

// Key is a natural key: the entity kind plus the columns that identify a row.
type Key struct {
	Kind   Kind
	Fields Fields
}

// NewKey builds a key from alternating column/value pairs.
func NewKey(kind Kind, colsAndValues ...any) Key {
	f := make(Fields, len(colsAndValues)/2)
	for i := 0; i+1 < len(colsAndValues); i += 2 {
		f[fmt.Sprint(colsAndValues[i])] = colsAndValues[i+1]
	}
	return Key{Kind: kind, Fields: f}
}

// Columns returns the key columns in sorted order.
func (k Key) Columns() []string {
	return sortedColumns(k.Fields)
}

// String renders the key canonically, e.g. judge{name_key="kovács péter"}.
func (k Key) String() string {
	cols := k.Columns()
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s=%#v", c, normalizeValue(k.Fields[c]))
	}
	return string(k.Kind) + "{" + strings.Join(parts, ",") + "}"
}

// Record is a stored row.
type Record struct {
	Handle Handle
	Kind   Kind
	Fields Fields
}

// String returns a text column, or "" when absent or not text.
func (r Record) String(col string) string {
	switch v := r.Fields[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Int64 returns an integer column.
func (r Record) Int64(col string) (int64, bool) {
	switch v := normalizeValue(r.Fields[col]).(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Store is the storage collaborator of the reconciler. Upsert must be atomic
// per key: concurrent callers never create two rows for one key.
type Store interface {
	// Upsert inserts key+create+update on first sight; later calls apply update only.
	Upsert(ctx context.Context, key Key, create, update Fields) (Handle, error)
	// Find returns the handle for key or ErrNotFound.
	Find(ctx context.Context, key Key) (Handle, error)
	// FindUnique returns the row for key, ErrNotFound, or ErrNotUnique.
	FindUnique(ctx context.Context, key Key) (Record, error)
	// List returns rows of kind matching where, ordered by handle.
	List(ctx context.Context, kind Kind, where Fields) ([]Record, error)
	// Close releases the store.
	Close() error
}

func sortedColumns(f Fields) []string {
	cols := make([]string, 0, len(f))
	for c := range f {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// normalizeValue folds integer widths to int64 and dereferences pointers so
// values compare the same regardless of how callers typed them.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint32:
		return int64(x)
	case Handle:
		return int64(x)
	case *int:
		if x == nil {
			return nil
		}
		return int64(*x)
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}
