// Package hierarchy ranks round names so advancement can be decided between
// rounds of one event. The table is data: New validates it once and the
// resulting Hierarchy never changes.
package hierarchy

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Rank is a round's position in the hierarchy. The zero value is Unknown.
type Rank struct {
	value int
	known bool
}

// Unknown is the rank of a round name missing from the table.
var Unknown = Rank{}

// Known wraps a rank value.
func Known(v int) Rank { return Rank{value: v, known: true} }

// Value returns the rank and whether it is known.
func (r Rank) Value() (int, bool) { return r.value, r.known }

// IsKnown reports whether the round name was classified.
func (r Rank) IsKnown() bool { return r.known }

func (r Rank) String() string {
	if !r.known {
		return "unknown"
	}
	return strconv.Itoa(r.value)
}

// Level is one rank and every label that denotes it.
type Level struct {
	Rank  int
	Names []string
}

// Hierarchy is an immutable round-name to rank table.
type Hierarchy struct {
	ranks map[string]int
	names map[int]string
}

var folder = cases.Fold()

// key folds case and drops all whitespace so "1. Forduló" matches "1.Forduló".
func key(name string) string {
	return folder.String(strings.Join(strings.Fields(name), ""))
}

// New validates levels and builds a Hierarchy.
func New(levels []Level) (*Hierarchy, error) {
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	h := &Hierarchy{
		ranks: make(map[string]int),
		names: make(map[int]string, len(levels)),
	}
	for _, lvl := range levels {
		if _, dup := h.names[lvl.Rank]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateRank, lvl.Rank)
		}
		if len(lvl.Names) == 0 {
			return nil, fmt.Errorf("%w: rank %d has no names", ErrEmptyName, lvl.Rank)
		}
		h.names[lvl.Rank] = lvl.Names[0]
		for _, n := range lvl.Names {
			k := key(n)
			if k == "" {
				return nil, fmt.Errorf("%w: rank %d", ErrEmptyName, lvl.Rank)
			}
			if prev, dup := h.ranks[k]; dup {
				return nil, fmt.Errorf("%w: %q at %d and %d", ErrDuplicateName, n, prev, lvl.Rank)
			}
			h.ranks[k] = lvl.Rank
		}
	}
	return h, nil
}

// Rank returns the rank of a round name, or Unknown.
func (h *Hierarchy) Rank(name string) Rank {
	if v, ok := h.ranks[key(name)]; ok {
		return Known(v)
	}
	return Unknown
}

// Name returns the canonical (first listed) name of a rank.
func (h *Hierarchy) Name(r Rank) (string, bool) {
	if !r.known {
		return "", false
	}
	n, ok := h.names[r.value]
	return n, ok
}

// Len is the number of levels.
func (h *Hierarchy) Len() int { return len(h.names) }

// MaxReached is the highest known rank among names. Unknown names are
// skipped; if none is known the result is Unknown.
func (h *Hierarchy) MaxReached(names ...string) Rank {
	best := Unknown
	for _, n := range names {
		r := h.Rank(n)
		if r.known && (!best.known || r.value > best.value) {
			best = r
		}
	}
	return best
}

// HasAdvancedPast is true iff both ranks are known and maxReached > judged.
func HasAdvancedPast(maxReached, judged Rank) bool {
	return maxReached.known && judged.known && maxReached.value > judged.value
}
