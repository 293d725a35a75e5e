// Package sheet reads the daily water balance report from a workbook or a
// CSV export and validates it into a domain.Table.
package sheet

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/water-balance-report/internal/domain"
)

// fileVersion identifies the current content of path by modification time
// and size, so callers can skip re-ingesting an unchanged file.
func fileVersion(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &domain.IngestionError{Source: path, Err: err}
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}

// layoutRows cuts the header and data rows out of a full sheet. headerRow is
// 1-based; offset is the 0-based index of the first table column.
func layoutRows(source string, rows [][]string, headerRow, offset int) (domain.Sheet, error) {
	if len(rows) < headerRow {
		return domain.Sheet{}, &domain.IngestionError{
			Source: source,
			Row:    headerRow,
			Err:    fmt.Errorf("header row not found (sheet has %d rows)", len(rows)),
		}
	}
	data := make([][]string, 0, len(rows)-headerRow)
	for _, row := range rows[headerRow:] {
		data = append(data, trimColumns(row, offset))
	}
	return domain.Sheet{
		Source:    source,
		HeaderRow: headerRow,
		Header:    trimColumns(rows[headerRow-1], offset),
		Rows:      data,
	}, nil
}

func trimColumns(row []string, offset int) []string {
	if offset >= len(row) {
		return nil
	}
	return row[offset:]
}

func checkContext(ctx context.Context, source string) error {
	if err := ctx.Err(); err != nil {
		return &domain.IngestionError{Source: source, Err: err}
	}
	return nil
}

// stripBOM removes a UTF-8 byte order mark left by spreadsheet CSV exports.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
