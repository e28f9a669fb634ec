package listview

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// All is the filter value meaning "do not filter on this field".
const All = "all"

// Predicate reports whether an item should be kept.
type Predicate[T any] func(T) bool

// Apply keeps the items accepted by every predicate (logical AND).
// Nil predicates are ignored. The result preserves input order and the
// input slice is never modified.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, p := range active {
			if !p(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

// Fold lower-cases s and strips diacritics, so "Conceição" matches "conceicao".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// MatchText matches term as a case and accent insensitive substring of any
// of the fields returned by fields. An empty term yields no predicate.
func MatchText[T any](term string, fields func(T) []string) Predicate[T] {
	needle := Fold(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}
	return func(it T) bool {
		for _, f := range fields(it) {
			if strings.Contains(Fold(f), needle) {
				return true
			}
		}
		return false
	}
}

// Equals matches when field(it) equals want. "all" or empty yields no predicate.
func Equals[T any, V ~string](want string, field func(T) V) Predicate[T] {
	if want == "" || want == All {
		return nil
	}
	return func(it T) bool {
		return string(field(it)) == want
	}
}

// Within matches items whose date falls in [from, to], inclusive.
// Either bound may be zero to leave that side open. Items without a
// usable date never match an active range.
func Within[T any](from, to time.Time, date func(T) (time.Time, bool)) Predicate[T] {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	return func(it T) bool {
		d, ok := date(it)
		if !ok {
			return false
		}
		if !from.IsZero() && d.Before(from) {
			return false
		}
		if !to.IsZero() && d.After(to) {
			return false
		}
		return true
	}
}

// Flag matches items whose boolean field equals *want. A nil want yields no predicate.
func Flag[T any](want *bool, field func(T) bool) Predicate[T] {
	if want == nil {
		return nil
	}
	w := *want
	return func(it T) bool {
		return field(it) == w
	}
}
