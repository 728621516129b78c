package export

import (
	"context"
	"fmt"
	"time"

	sheets "google.golang.org/api/sheets/v4"
)

// historyHeader defines the columns of the HISTORY sheet. One row is appended
// per snapshot, so the sheet accumulates a TVL time series per wallet.
var historyHeader = []any{"Date", "Wallet", "Positions", "TVL", "TVL Change"}

// buildHistoryRow builds the single data row appended for one snapshot run.
func buildHistoryRow(s Summary, at time.Time) []any {
	return []any{
		at.UTC().Format("02.01.2006"),
		s.Wallet,
		s.TotalPositions,
		toFloat(s.TotalValue),
		formatChange(s.TVLChange),
	}
}

// AppendHistory ensures the HISTORY sheet exists, writes the header if the
// sheet is empty, then appends one row for the current run.
func (w *SheetsWriter) AppendHistory(ctx context.Context, summary Summary) error {
	if err := w.ensureSheets(ctx, "HISTORY"); err != nil {
		return fmt.Errorf("ensuring HISTORY sheet: %w", err)
	}

	existing, err := w.svc.Spreadsheets.Values.Get(
		w.spreadsheetID, "HISTORY!A1:A1",
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading HISTORY header: %w", err)
	}

	if len(existing.Values) == 0 {
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			"HISTORY!A1",
			&sheets.ValueRange{Values: [][]any{historyHeader}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing HISTORY header: %w", err)
		}
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		"HISTORY!A:E",
		&sheets.ValueRange{Values: [][]any{buildHistoryRow(summary, time.Now())}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending HISTORY row: %w", err)
	}

	return nil
}
