// Package excel exports a Dataset range to an .xlsx workbook.
package excel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

const summarySheet = "Summary"

// ExportPath is where the workbook for r is written inside dir.
func ExportPath(dir string, r domain.YearRange) string {
	return filepath.Join(dir, r.DatasetName()+".xlsx")
}

// Export writes a workbook with a Summary sheet (year, mean, readings) and a
// line chart of the means, followed by one sheet per year listing day and
// rainfall. Years without readings get a blank mean.
func Export(ds domain.Dataset, r domain.YearRange, path string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for y := r.Start; y <= r.End; y++ {
		if _, err := ds.Year(y); err != nil {
			return fmt.Errorf("export workbook: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{ //nolint:errcheck // cosmetic metadata
		Title:       fmt.Sprintf("Rainfall %d - %d", r.Start, r.End),
		Subject:     "Daily rainfall",
		Creator:     "rainfall-etl",
		Description: fmt.Sprintf("Daily rainfall readings and annual means, %d to %d", r.Start, r.End),
	})

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	if err := writeSummary(f, ds, r); err != nil {
		return fmt.Errorf("export workbook: summary: %w", err)
	}
	for y := r.Start; y <= r.End; y++ {
		if err := writeYear(f, y, ds[y]); err != nil {
			return fmt.Errorf("export workbook: year %d: %w", y, err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create workbook dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, ds domain.Dataset, r domain.YearRange) error {
	header := []any{"Year", "Mean (mm/day)", "Readings"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for y := r.Start; y <= r.End; y++ {
		t := ds[y]
		values := []any{y, nil, len(t)}
		mean, err := t.Mean()
		switch {
		case err == nil:
			values[1] = mean
		case !errors.Is(err, domain.ErrEmptyYear):
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell(1, row), &values); err != nil {
			return err
		}
		row++
	}
	last := row - 1

	if err := f.SetColWidth(summarySheet, "A", "C", 16); err != nil {
		return err
	}

	return f.AddChart(summarySheet, "E2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       summarySheet + "!$B$1",
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", summarySheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", summarySheet, last),
		}},
		Title: []excelize.RichTextRun{{
			Text: fmt.Sprintf("Mean Annual Rainfall measurements, %d - %d", r.Start, r.End),
		}},
	})
}

func writeYear(f *excelize.File, year int, t domain.YearTable) error {
	sheet := strconv.Itoa(year)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []any{"Day", "Rainfall (mm/day)"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, d := range t.Days() {
		values := []any{d, t[d]}
		if err := f.SetSheetRow(sheet, cell(1, i+2), &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "B", 18)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
