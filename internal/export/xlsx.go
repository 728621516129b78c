package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XlsxWriter implements ReportWriter by writing a local .xlsx workbook.
type XlsxWriter struct {
	path string
}

// NewXlsxWriter creates a writer that saves reports to the given file path.
func NewXlsxWriter(path string) *XlsxWriter {
	return &XlsxWriter{path: path}
}

// Write renders the report into SUMMARY and POSITIONS sheets and saves the
// workbook, replacing any previous file at the same path.
func (w *XlsxWriter) Write(_ context.Context, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, "SUMMARY", buildSummary(report.Summary)); err != nil {
		return err
	}
	if err := writeSheet(f, "POSITIONS", buildPositions(report.Rows)); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, values [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	for i, row := range values {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("computing cell for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("writing row %d of %s: %w", i+1, name, err)
		}
	}
	return nil
}
