package sheet

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes a workbook in the report layout: an optional title in the
// first table column of row 1, the header on layout.HeaderRow and the data
// rows below it. Cell values keep their Go type, so float64 dates are stored
// as serial day numbers and numbers as numeric cells.
func WriteXLSX(path string, layout Layout, title string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // closed after SaveAs

	idx, err := f.NewSheet(layout.Sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if layout.Sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
	}

	firstCol := 1
	if layout.FirstColumn != "" {
		if firstCol, err = excelize.ColumnNameToNumber(layout.FirstColumn); err != nil {
			return err
		}
	}

	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(firstCol+col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(layout.Sheet, cell, v)
	}

	if title != "" && layout.HeaderRow > 1 {
		if err := set(0, 1, title); err != nil {
			return err
		}
	}
	for i, h := range header {
		if err := set(i, layout.HeaderRow, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			if err := set(c, layout.HeaderRow+1+r, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes a flat CSV export with the header on the first line.
func WriteCSV(path string, header []string, rows [][]string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		out.Close() //nolint:errcheck,gosec // already failing
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		out.Close() //nolint:errcheck,gosec // already failing
		return err
	}
	return out.Close()
}
