// Package export renders ledger contents for download.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// CSVHeader is the first line of every export.
const CSVHeader = "Date,Name,Category,Amount,Currency"

// WriteCSV writes one row per expense, in the given order. Name and category
// are always quoted; quotes inside them are doubled.
func WriteCSV(w io.Writer, records []core.Expense) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range records {
		row := strings.Join([]string{
			e.Date.String(),
			quote(e.Name),
			quote(e.Category),
			strconv.FormatFloat(e.Amount, 'f', -1, 64),
			e.Currency.OrDefault().String(),
		}, ",")
		if _, err := bw.WriteString("\n" + row); err != nil {
			return fmt.Errorf("write row %s: %w", e.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Filename returns the download name for an export taken at t.
func Filename(t time.Time) string {
	return "expenses_" + core.NewDate(t).String() + ".csv"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
