package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/couchcryptid/water-balance-report/internal/domain"
)

// CSVSource loads the report from a flat CSV export: headers on the first
// line, table starting in the first column.
type CSVSource struct {
	path string
}

// NewCSVSource returns a source for the CSV file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Name returns the file path, for logs and errors.
func (s *CSVSource) Name() string { return s.path }

// Version reports the file's modification time and size.
func (s *CSVSource) Version(_ context.Context) (string, error) {
	return fileVersion(s.path)
}

// Load reads and parses the CSV file.
func (s *CSVSource) Load(ctx context.Context) (*domain.Table, error) {
	if err := checkContext(ctx, s.path); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, &domain.IngestionError{Source: s.path, Err: err}
	}
	defer f.Close() //nolint:errcheck // read-only file

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &domain.IngestionError{Source: s.path, Err: fmt.Errorf("read csv: %w", err)}
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = stripBOM(rows[0][0])
	}

	sheet, err := layoutRows(s.path, rows, 1, 0)
	if err != nil {
		return nil, err
	}
	return domain.ParseRows(sheet)
}
