// Package header splits a mark table's header row into identity columns and
// dance columns. Rows are keyed by full header text, so every dance column
// keeps the exact header it was parsed from.
package header

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Delimiter separates dance name from judge letters in the explicit header form.
const Delimiter = "/"

// Identity names a fixed, non-dance column.
type Identity int

// Identity columns addressed by well-known name.
const (
	IdentityNumber Identity = iota + 1
	IdentityTotal
	IdentityPlacement
	IdentityAdvancement
)

func (i Identity) String() string {
	switch i {
	case IdentityNumber:
		return "number"
	case IdentityTotal:
		return "total"
	case IdentityPlacement:
		return "placement"
	case IdentityAdvancement:
		return "advancement"
	default:
		return "unknown"
	}
}

// Aliases lists the header spellings of each identity column across
// Hungarian, Slovak and English tables.
var Aliases = map[Identity][]string{
	IdentityNumber:      {"FordulóRsz.", "Rsz.", "Rajtszám", "number", "No.", "Číslo", "Č."},
	IdentityTotal:       {"Összesen", "total", "Spolu", "Sum"},
	IdentityPlacement:   {"Helyezés.", "Helyezés", "placement", "Umiestnenie", "Place"},
	IdentityAdvancement: {"Tovább", "advancement", "Postup", "Advance"},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]Identity {
	idx := make(map[string]Identity)
	for id, names := range Aliases {
		for _, n := range names {
			idx[aliasKey(n)] = id
		}
	}
	return idx
}

func aliasKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// DanceColumn is one parsed dance header.
type DanceColumn struct {
	Dance   string
	Letters []rune
	// Header is the original header text used to look up row cells.
	Header string
	// Delimited is true for the "Dance/ABC" form.
	Delimited bool

	lpad string
	sep  string
}

// Reconstruct rebuilds the original header text from dance name and letters.
func (c DanceColumn) Reconstruct() string {
	return c.lpad + c.Dance + c.sep + string(c.Letters)
}

// Layout is the analyzed header row of one round.
type Layout struct {
	Dances []DanceColumn
	// Identity maps an identity column to its header text in this table.
	Identity map[Identity]string
	// Ignored holds headers that are neither dances nor known identity columns.
	Ignored []string
}

// Column returns the header text of an identity column.
func (l Layout) Column(id Identity) (string, bool) {
	h, ok := l.Identity[id]
	return h, ok
}

// Cell returns a row's value for an identity column.
func (l Layout) Cell(row map[string]string, id Identity) (string, bool) {
	h, ok := l.Identity[id]
	if !ok {
		return "", false
	}
	v, ok := row[h]
	return strings.TrimSpace(v), ok
}

// Analyze classifies headers. knownLetters are the judge letters assigned in
// the competition; they enable the delimiter-less "<dance><letters>" form.
func Analyze(headers []string, knownLetters []rune) Layout {
	known := make(map[rune]bool, len(knownLetters))
	for _, r := range knownLetters {
		known[r] = true
	}

	l := Layout{Identity: make(map[Identity]string)}
	for _, h := range headers {
		if id, ok := aliasIndex[aliasKey(h)]; ok {
			if _, dup := l.Identity[id]; !dup {
				l.Identity[id] = h
			}
			continue
		}
		if col, ok := parseDelimited(h); ok {
			l.Dances = append(l.Dances, col)
			continue
		}
		if col, ok := parseRun(h, known); ok {
			l.Dances = append(l.Dances, col)
			continue
		}
		l.Ignored = append(l.Ignored, h)
	}
	return l
}

func parseDelimited(h string) (DanceColumn, bool) {
	i := strings.LastIndex(h, Delimiter)
	if i < 0 {
		return DanceColumn{}, false
	}
	letters := strings.TrimLeftFunc(h[i+len(Delimiter):], unicode.IsSpace)
	if !validLetters(letters) {
		return DanceColumn{}, false
	}
	return newColumn(h, len(h)-len(letters), true)
}

// parseRun matches "<name><run of known letters>", taking the longest run of
// unique known letters at the end of the header.
func parseRun(h string, known map[rune]bool) (DanceColumn, bool) {
	if len(known) == 0 {
		return DanceColumn{}, false
	}
	seen := make(map[rune]bool)
	at := len(h)
	for at > 0 {
		r, size := utf8.DecodeLastRuneInString(h[:at])
		if !known[r] || seen[r] {
			break
		}
		seen[r] = true
		at -= size
	}
	if at == len(h) || at == 0 {
		return DanceColumn{}, false
	}
	// "SFABC" could be judges F,A,B,C after "S" or a dance "SF"; leave it unclassified.
	if prev, _ := utf8.DecodeLastRuneInString(h[:at]); unicode.IsUpper(prev) {
		return DanceColumn{}, false
	}
	return newColumn(h, at, false)
}

// newColumn splits h at byte offset at into name part and letters.
func newColumn(h string, at int, delimited bool) (DanceColumn, bool) {
	name := h[:at]
	core := strings.TrimRightFunc(name, unicode.IsSpace)
	if delimited {
		if !strings.HasSuffix(core, Delimiter) {
			return DanceColumn{}, false
		}
		core = strings.TrimRightFunc(strings.TrimSuffix(core, Delimiter), unicode.IsSpace)
	}
	dance := strings.TrimLeftFunc(core, unicode.IsSpace)
	if dance == "" {
		return DanceColumn{}, false
	}
	return DanceColumn{
		Dance:     dance,
		Letters:   []rune(h[at:]),
		Header:    h,
		Delimited: delimited,
		lpad:      core[:len(core)-len(dance)],
		sep:       name[len(core):],
	}, true
}

func validLetters(s string) bool {
	if s == "" {
		return false
	}
	seen := make(map[rune]bool)
	for _, r := range s {
		if !unicode.IsUpper(r) || seen[r] {
			return false
		}
		seen[r] = true
	}
	return true
}
