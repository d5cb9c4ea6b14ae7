package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Summary is the formatting-agnostic view derived from the ledger for display.
//
// When Currency is set the summary is filtered: Total and MatchedCount
// describe the records in that currency. Otherwise PerCurrencyTotals holds
// one sum per currency present in the ledger.
type Summary struct {
	Currency          Currency
	Total             decimal.Decimal
	MatchedCount      int
	PerCurrencyTotals map[Currency]decimal.Decimal
	TotalCount        int
}

// Filtered reports whether the summary was restricted to one currency.
func (s Summary) Filtered() bool {
	return s.Currency != ""
}

// FilteredSummaryJSON is the wire shape of a filtered summary.
type FilteredSummaryJSON struct {
	Currency     Currency        `json:"currency"`
	Total        decimal.Decimal `json:"total"`
	MatchedCount int             `json:"matchedCount"`
	TotalCount   int             `json:"totalCount"`
}

// TotalsSummaryJSON is the wire shape of an unfiltered summary.
// PerCurrencyTotals is always present, empty for an empty ledger.
type TotalsSummaryJSON struct {
	PerCurrencyTotals map[Currency]decimal.Decimal `json:"perCurrencyTotals"`
	TotalCount        int                          `json:"totalCount"`
}

// FilteredJSON returns the filtered wire shape.
func (s Summary) FilteredJSON() FilteredSummaryJSON {
	return FilteredSummaryJSON{
		Currency:     s.Currency,
		Total:        s.Total,
		MatchedCount: s.MatchedCount,
		TotalCount:   s.TotalCount,
	}
}

// TotalsJSON returns the unfiltered wire shape.
func (s Summary) TotalsJSON() TotalsSummaryJSON {
	totals := s.PerCurrencyTotals
	if totals == nil {
		totals = map[Currency]decimal.Decimal{}
	}
	return TotalsSummaryJSON{PerCurrencyTotals: totals, TotalCount: s.TotalCount}
}

// MarshalJSON emits only the fields of the summary's own shape.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.Filtered() {
		return json.Marshal(s.FilteredJSON())
	}
	return json.Marshal(s.TotalsJSON())
}
