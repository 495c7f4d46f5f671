// Package report renders a user's expenses as downloadable files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"spendlog/internal/core"
)

// csvHeader is the first row of every export.
var csvHeader = []string{"Date", "Category", "Note", "Amount"}

// WriteCSV streams the expenses to w as CSV, one row per expense after the
// header. Amounts are plain decimals without a currency symbol; quoting of
// commas and newlines inside notes is handled by encoding/csv. Records are
// re-validated per row so a corrupt one never silently lands in an export.
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range expenses {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("expense %d: %w", e.ID, err)
		}
		row := []string{
			e.Date.String(),
			e.Category,
			e.Note,
			e.Amount.Decimal(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
