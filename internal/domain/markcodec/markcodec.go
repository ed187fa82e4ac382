// Package markcodec decodes the free-text cells of mark tables: per-judge mark
// strings, placements, scores, counts and dates.
//
// None of the parsers fail loudly. A value that cannot be read comes back with
// ok == false and callers store it as unknown, never as zero.
package markcodec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Mark is one judge's verdict character. It is not assumed to be numeric.
type Mark string

// ParseMark decodes one mark character; ok is false when ch is the no-mark placeholder.
func ParseMark(ch, placeholder rune) (Mark, bool) {
	if ch == placeholder {
		return "", false
	}
	return Mark(string(ch)), true
}

// LetterMark pairs a judge letter with the mark that judge gave.
type LetterMark struct {
	Letter rune
	Mark   Mark
}

// SplitMarks zips a mark string with its dance's judge letters and drops
// placeholder positions. Lengths are compared in runes.
func SplitMarks(marks string, letters []rune, placeholder rune) ([]LetterMark, error) {
	chars := []rune(marks)
	if len(chars) != len(letters) {
		return nil, fmt.Errorf("%w: %d marks for %d judges", ErrLengthMismatch, len(chars), len(letters))
	}
	out := make([]LetterMark, 0, len(chars))
	for i, ch := range chars {
		if m, ok := ParseMark(ch, placeholder); ok {
			out = append(out, LetterMark{Letter: letters[i], Mark: m})
		}
	}
	return out, nil
}

// ParsePlacement reads the leading integer of a placement cell.
// "3. - kieséssel" -> 3, "5-6." -> 5, "" -> not ok.
func ParsePlacement(text string) (int, bool) {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, " - "); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRightFunc(s, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSpace(r) })
	return leadingInt(s)
}

// ParseCount reads a participant count such as "24" or "24 pár".
func ParseCount(text string) (int, bool) {
	return leadingInt(strings.TrimSpace(text))
}

func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ScoreStrategy is one attempt at reading a score.
type ScoreStrategy func(text string) (decimal.Decimal, bool)

// ScoreStrategies are tried in order by ParseScore.
var ScoreStrategies = []ScoreStrategy{
	directScore,
	commaDecimalScore,
	groupedCommaScore,
}

// ParseScore returns the first strategy's successful reading of text.
func ParseScore(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Decimal{}, false
	}
	for _, try := range ScoreStrategies {
		if d, ok := try(s); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

func directScore(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	return d, err == nil
}

// "12,5" -> 12.5
func commaDecimalScore(s string) (decimal.Decimal, bool) {
	if strings.Count(s, ",") != 1 || strings.Contains(s, ".") {
		return decimal.Decimal{}, false
	}
	return directScore(strings.Replace(s, ",", ".", 1))
}

// "1.234,5" or "1 234,5" -> 1234.5. Separators may only sit before the
// comma and must split the integer part into groups of three.
func groupedCommaScore(s string) (decimal.Decimal, bool) {
	whole, frac, ok := strings.Cut(s, ",")
	if !ok || !allDigits(frac) {
		return decimal.Decimal{}, false
	}
	sign := ""
	if rest, neg := strings.CutPrefix(whole, "-"); neg {
		sign, whole = "-", rest
	}
	groups := strings.FieldsFunc(whole, isGroupSeparator)
	first := strings.IndexFunc(whole, isGroupSeparator)
	if len(groups) < 2 || first <= 0 || countFunc(whole, isGroupSeparator) != len(groups)-1 {
		return decimal.Decimal{}, false
	}
	for i, g := range groups {
		if !allDigits(g) || len(g) > 3 || (i > 0 && len(g) != 3) {
			return decimal.Decimal{}, false
		}
	}
	return directScore(sign + strings.Join(groups, "") + "." + frac)
}

func isGroupSeparator(r rune) bool {
	return r == '.' || r == ' ' || r == '\u00a0'
}

func countFunc(s string, f func(rune) bool) int {
	n := 0
	for _, r := range s {
		if f(r) {
			n++
		}
	}
	return n
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DateLayouts are tried in order by ParseDate.
var DateLayouts = []string{
	"2006.01.02",
	"2006.01.02.",
	"2006. 01. 02.",
	"2006-01-02",
	"2006.1.2",
	"02.01.2006",
	"2.1.2006",
	"2006/01/02",
}

// ParseDate reads a competition date. Text after the first date-like token,
// such as a weekday, is ignored.
func ParseDate(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	candidates := []string{s}
	if f := strings.Fields(s); len(f) > 1 {
		candidates = append(candidates, f[0])
	}
	for _, c := range candidates {
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
