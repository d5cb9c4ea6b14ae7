// Package aggregate derives display summaries and orderings from ledger
// contents. Every function is pure: inputs are never modified.
//
// Amounts are summed as decimals, so totals do not depend on the order of
// the records and carry no binary floating point residue.
package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// TotalsByCurrency sums amounts per currency. A missing currency counts as
// USD. The result is empty, not nil, for empty input.
func TotalsByCurrency(records []core.Expense) map[core.Currency]decimal.Decimal {
	totals := make(map[core.Currency]decimal.Decimal)
	for _, e := range records {
		c := e.Currency.OrDefault()
		totals[c] = totals[c].Add(decimal.NewFromFloat(e.Amount))
	}
	return totals
}

// FilterByCurrency returns the records in currency c, keeping their order.
func FilterByCurrency(records []core.Expense, c core.Currency) []core.Expense {
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if e.Currency.OrDefault() == c {
			out = append(out, e)
		}
	}
	return out
}

// Summarize builds the display summary. With an empty selected currency it
// reports per-currency totals; otherwise the total and count for that
// currency alone. TotalCount is always the size of records.
func Summarize(records []core.Expense, selected core.Currency) core.Summary {
	if selected == "" {
		return core.Summary{
			PerCurrencyTotals: TotalsByCurrency(records),
			TotalCount:        len(records),
		}
	}

	matched := FilterByCurrency(records, selected)
	total := decimal.Zero
	for _, e := range matched {
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}
	return core.Summary{
		Currency:     selected,
		Total:        total,
		MatchedCount: len(matched),
		TotalCount:   len(records),
	}
}

// SortedByRecency returns a copy of records, most recent timestamp first.
// Records with equal timestamps keep their relative order.
func SortedByRecency(records []core.Expense) []core.Expense {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		default:
			return 0
		}
	})
	return out
}
