package sheet

import (
	"context"
	"fmt"

	"github.com/couchcryptid/water-balance-report/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Layout locates the report table inside a workbook.
type Layout struct {
	Sheet       string // e.g. "Rangkum"
	HeaderRow   int    // 1-based row holding the column headers
	FirstColumn string // first table column, e.g. "B"
}

// XLSXSource loads the report from an .xlsx workbook.
type XLSXSource struct {
	path   string
	layout Layout
}

// NewXLSXSource validates the layout and returns a workbook source.
func NewXLSXSource(path string, layout Layout) (*XLSXSource, error) {
	if layout.Sheet == "" {
		return nil, fmt.Errorf("xlsx source %s: sheet name is required", path)
	}
	if layout.HeaderRow < 1 {
		return nil, fmt.Errorf("xlsx source %s: header row must be >= 1", path)
	}
	if layout.FirstColumn == "" {
		layout.FirstColumn = "A"
	}
	if _, err := excelize.ColumnNameToNumber(layout.FirstColumn); err != nil {
		return nil, fmt.Errorf("xlsx source %s: %w", path, err)
	}
	return &XLSXSource{path: path, layout: layout}, nil
}

// Name returns the workbook path and sheet, for logs and errors.
func (s *XLSXSource) Name() string {
	return s.path + "#" + s.layout.Sheet
}

// Version reports the workbook's modification time and size.
func (s *XLSXSource) Version(_ context.Context) (string, error) {
	return fileVersion(s.path)
}

// Load reads the configured sheet and parses it into a table. Cells are read
// raw so date cells arrive as serial day numbers regardless of their display
// format.
func (s *XLSXSource) Load(ctx context.Context) (*domain.Table, error) {
	if err := checkContext(ctx, s.Name()); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, &domain.IngestionError{Source: s.path, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close() //nolint:errcheck // read-only workbook

	rows, err := f.GetRows(s.layout.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &domain.IngestionError{Source: s.Name(), Err: fmt.Errorf("read sheet: %w", err)}
	}

	col, _ := excelize.ColumnNameToNumber(s.layout.FirstColumn)
	sheet, err := layoutRows(s.Name(), rows, s.layout.HeaderRow, col-1)
	if err != nil {
		return nil, err
	}
	return domain.ParseRows(sheet)
}
