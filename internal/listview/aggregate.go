package listview

import (
	"github.com/shopspring/decimal"
)

// ============================================================
// Reductions. Ratios over an empty denominator are 0, never NaN/Inf.
// ============================================================

// Count returns how many items satisfy pred. A nil pred counts everything.
func Count[T any](items []T, pred Predicate[T]) int {
	if pred == nil {
		return len(items)
	}
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// CountBy groups items by key and counts each group.
func CountBy[T any, K comparable](items []T, key func(T) K) map[K]int {
	out := make(map[K]int)
	for _, it := range items {
		out[key(it)]++
	}
	return out
}

// Sum adds value(it) over the items accepted by pred.
func Sum[T any](items []T, pred Predicate[T], value func(T) float64) float64 {
	var total float64
	for _, it := range items {
		if pred == nil || pred(it) {
			total += value(it)
		}
	}
	return total
}

// SumDecimal is Sum for monetary values.
func SumDecimal[T any](items []T, pred Predicate[T], value func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if pred == nil || pred(it) {
			total = total.Add(value(it))
		}
	}
	return total
}

// Ratio returns part/whole, or 0 when whole is 0.
func Ratio(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole
}

// Percent returns part/whole*100 rounded to two decimals, or 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	p, _ := decimal.NewFromFloat(part / whole * 100).Round(2).Float64()
	return p
}

// PercentDecimal is Percent for monetary values.
func PercentDecimal(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	p, _ := part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return p
}

// Mean averages value(it) over items, 0 for an empty collection.
func Mean[T any](items []T, value func(T) float64) float64 {
	if len(items) == 0 {
		return 0
	}
	return Sum(items, nil, value) / float64(len(items))
}

// DivDecimal divides money by a count, 0 when the count is 0.
func DivDecimal(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}
