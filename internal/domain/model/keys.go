package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// NormalizeName trims, collapses internal whitespace and applies NFC.
// Case is preserved.
func NormalizeName(raw string) string {
	return norm.NFC.String(strings.Join(strings.Fields(raw), " "))
}

// FoldKey is the dedup form of a name: NormalizeName followed by a Unicode case fold.
func FoldKey(raw string) string {
	return folder.String(NormalizeName(raw))
}

// NameKey is the natural key of a globally shared, name-identified entity
// (judge, club, couple). Build it once at the ingestion boundary.
type NameKey struct {
	display string
	key     string
}

// NewNameKey normalizes raw into a NameKey.
func NewNameKey(raw string) NameKey {
	display := NormalizeName(raw)
	return NameKey{display: display, key: folder.String(display)}
}

// Display is the normalized, case-preserving name.
func (k NameKey) Display() string { return k.display }

// Key is the folded dedup key.
func (k NameKey) Key() string { return k.key }

// IsZero reports an empty name.
func (k NameKey) IsZero() bool { return k.key == "" }

// Equal compares by folded key.
func (k NameKey) Equal(o NameKey) bool { return k.key == o.key }

// CoupleKey identifies a couple. Club is empty under the name-only policy.
type CoupleKey struct {
	Name NameKey
	Club string
}

// NewCoupleKey builds a couple key; withClub selects the name+club policy.
func NewCoupleKey(name, club string, withClub bool) CoupleKey {
	k := CoupleKey{Name: NewNameKey(name)}
	if withClub {
		k.Club = FoldKey(club)
	}
	return k
}

// NormalizeNumber trims a start number and drops a trailing dot ("7." -> "7").
func NormalizeNumber(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), ".")
}

// NormalizeLetter trims a judge letter and reports whether it is exactly one rune.
func NormalizeLetter(raw string) (rune, bool) {
	rs := []rune(strings.TrimSpace(raw))
	if len(rs) != 1 {
		return 0, false
	}
	return rs[0], true
}
