package export

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetsWriter implements ReportWriter using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write ensures required sheets exist, clears and rewrites the current-state
// sheets, then appends one row to the HISTORY time series.
func (w *SheetsWriter) Write(ctx context.Context, report Report) error {
	if err := w.ensureSheets(ctx, "SUMMARY", "POSITIONS"); err != nil {
		return err
	}

	summaryValues := buildSummary(report.Summary)
	positionValues := buildPositions(report.Rows)

	_, err := w.svc.Spreadsheets.Values.BatchClear(
		w.spreadsheetID,
		&sheets.BatchClearValuesRequest{
			Ranges: []string{"SUMMARY!A:E", "POSITIONS!A:H"},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheets: %w", err)
	}

	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data: []*sheets.ValueRange{
				{Range: "SUMMARY!A1", Values: summaryValues},
				{Range: "POSITIONS!A1", Values: positionValues},
			},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}

	return w.AppendHistory(ctx, report.Summary)
}

// buildSummary builds the SUMMARY sheet data.
// Columns: Wallet | Positions | TVL | TVL Change | Top Protocols
func buildSummary(s Summary) [][]any {
	top := ""
	for i, p := range s.TopProtocols {
		if i > 0 {
			top += ", "
		}
		top += p
	}
	return [][]any{
		{"Wallet", "Positions", "TVL", "TVL Change", "Top Protocols"},
		{s.Wallet, s.TotalPositions, toFloat(s.TotalValue), formatChange(s.TVLChange), top},
	}
}

// buildPositions builds the POSITIONS sheet data.
// Columns: Wallet | Protocol | Label | Type | Bucket | Symbol | Amount | Value
func buildPositions(rows []Row) [][]any {
	data := make([][]any, 0, len(rows)+1)
	data = append(data, []any{
		"Wallet", "Protocol", "Label", "Type", "Bucket", "Symbol", "Amount", "Value",
	})

	for _, row := range rows {
		data = append(data, []any{
			row.Wallet, row.Protocol, row.Label, string(row.Type),
			row.Bucket, row.Symbol, row.Amount, ptrFloat(row.Value),
		})
	}

	return data
}

// ensureSheets creates any of the named sheets that do not already exist.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) error {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	existing := make(map[string]bool, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		existing[s.Properties.Title] = true
	}

	var requests []*sheets.Request
	for _, name := range names {
		if !existing[name] {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}

	if len(requests) == 0 {
		return nil
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("creating sheets: %w", err)
	}

	return nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
