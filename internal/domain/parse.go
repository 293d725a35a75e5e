package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Sheet is the raw content of an ingested sheet: string cells as read by an
// ingestion adapter. HeaderRow is the 1-based sheet row of Header; data rows
// follow it directly and are numbered from HeaderRow+1 in error messages.
type Sheet struct {
	Source    string
	HeaderRow int
	Header    []string
	Rows      [][]string
}

type column int

const (
	colDate column = iota
	colPond
	colCategory
	colRainfall
	colFreeboard
	colDischarge
	colTSSInflow
	colTSSOutflow
	colWaterLevel
	numColumns
)

var columnNames = [numColumns]string{
	colDate:       "Tanggal",
	colPond:       "Settling Pond",
	colCategory:   "Kriteria",
	colRainfall:   "Max Rainfall to SP (mm)",
	colFreeboard:  "Sisa Freeboard (m)",
	colDischarge:  "Debit Keluar Actual (m3/s)",
	colTSSInflow:  "TSS Inflow (ton)",
	colTSSOutflow: "TSS Outflow (ton)",
	colWaterLevel: "Water Level (m)",
}

// ColumnHeaders returns the sheet header names in report column order.
func ColumnHeaders() []string {
	return append([]string(nil), columnNames[:]...)
}

// columnAliases maps normalized header text to a column. The sheet headers
// are the primary names; the English aliases cover CSV exports.
var columnAliases = map[string]column{
	"tanggal":                    colDate,
	"date":                       colDate,
	"settling pond":              colPond,
	"pond":                       colPond,
	"pond_id":                    colPond,
	"kriteria":                   colCategory,
	"category":                   colCategory,
	"max rainfall to sp (mm)":    colRainfall,
	"max_rainfall_mm":            colRainfall,
	"sisa freeboard (m)":         colFreeboard,
	"remaining_freeboard_m":      colFreeboard,
	"debit keluar actual (m3/s)": colDischarge,
	"actual_discharge_m3s":       colDischarge,
	"tss inflow (ton)":           colTSSInflow,
	"tss_inflow_ton":             colTSSInflow,
	"tss outflow (ton)":          colTSSOutflow,
	"tss_outflow_ton":            colTSSOutflow,
	"water level (m)":            colWaterLevel,
	"water_level_m":              colWaterLevel,
}

var requiredColumns = []column{colDate, colPond, colCategory}

// dateLayouts are tried in order for text dates. Numeric slash and dash
// dates are day-first, as written in the source workbook.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// excelEpoch is day zero of the 1900 date system, adjusted for the
// spreadsheet's phantom 1900-02-29.
var excelEpoch = civil.Date{Year: 1899, Month: time.December, Day: 30}

// Serial day bounds accepted for dates: 2000-01-01 through 9999-12-31.
const (
	minSerial = 36526
	maxSerial = 2958465
)

// ParseRows validates a sheet once and converts every data row into a
// Record. Layout problems (missing required column, duplicate column) and
// malformed cells are reported as a single *IngestionError.
func ParseRows(sheet Sheet) (*Table, error) {
	index, err := mapColumns(sheet)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		if isBlankRow(row) {
			continue
		}
		rowNum := sheet.HeaderRow + 1 + i
		rec, err := parseRecord(row, index)
		if err != nil {
			var cerr *cellError
			if errors.As(err, &cerr) {
				return nil, &IngestionError{Source: sheet.Source, Row: rowNum, Column: columnNames[cerr.col], Err: cerr.err}
			}
			return nil, &IngestionError{Source: sheet.Source, Row: rowNum, Err: err}
		}
		records = append(records, rec)
	}
	return NewTable(records), nil
}

// mapColumns resolves each known column to its cell index, -1 when absent.
func mapColumns(sheet Sheet) ([numColumns]int, error) {
	var index [numColumns]int
	for i := range index {
		index[i] = -1
	}
	for i, h := range sheet.Header {
		c, ok := columnAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if index[c] >= 0 {
			return index, &IngestionError{Source: sheet.Source, Row: sheet.HeaderRow, Column: columnNames[c], Err: errors.New("duplicate column")}
		}
		index[c] = i
	}
	for _, c := range requiredColumns {
		if index[c] < 0 {
			return index, &IngestionError{Source: sheet.Source, Row: sheet.HeaderRow, Column: columnNames[c], Err: errors.New("required column missing")}
		}
	}
	return index, nil
}

type cellError struct {
	col column
	err error
}

func (e *cellError) Error() string { return e.err.Error() }

func parseRecord(row []string, index [numColumns]int) (Record, error) {
	cell := func(c column) string {
		i := index[c]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := ParseDate(cell(colDate))
	if err != nil {
		return Record{}, &cellError{col: colDate, err: err}
	}
	pond := cell(colPond)
	if pond == "" {
		return Record{}, &cellError{col: colPond, err: errors.New("pond id is blank")}
	}

	rec := Record{
		Date:     date,
		PondID:   pond,
		Category: ParseCategory(cell(colCategory)),
	}

	measurements := []struct {
		col column
		dst **float64
	}{
		{colRainfall, &rec.MaxRainfallMM},
		{colFreeboard, &rec.RemainingFreeboardM},
		{colDischarge, &rec.ActualDischargeM3S},
		{colTSSInflow, &rec.TSSInflowTon},
		{colTSSOutflow, &rec.TSSOutflowTon},
		{colWaterLevel, &rec.WaterLevelM},
	}
	for _, m := range measurements {
		v, err := ParseMeasurement(cell(m.col))
		if err != nil {
			return Record{}, &cellError{col: m.col, err: err}
		}
		*m.dst = v
	}
	if rec.MaxRainfallMM != nil && *rec.MaxRainfallMM < 0 {
		return Record{}, &cellError{col: colRainfall, err: fmt.Errorf("negative rainfall %g", *rec.MaxRainfallMM)}
	}
	return rec, nil
}

// ParseDate parses a date cell: a text date in one of the supported layouts
// or a spreadsheet serial day number. Any time of day is discarded.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, errors.New("date is blank")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(serial) && !math.IsInf(serial, 0) {
		return dateFromSerial(serial)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("unrecognized date %q", s)
}

func dateFromSerial(serial float64) (civil.Date, error) {
	// Bare numbers below minSerial are years, counts or other stray values,
	// never report days.
	if serial < minSerial || serial > maxSerial {
		return civil.Date{}, fmt.Errorf("date serial %g out of range (want %s to 9999-12-31)", serial,
			excelEpoch.AddDays(minSerial))
	}
	return excelEpoch.AddDays(int(serial)), nil
}

// ParseMeasurement parses a numeric cell. Blank cells and spreadsheet
// sentinels are absent (nil). Both "1.234,5" and "1,234.5" are accepted: the
// last separator is the decimal mark and the other groups thousands. A lone
// comma followed by exactly three digits could be either and is rejected.
func ParseMeasurement(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return nil, nil
	}
	num, err := normalizeNumber(s)
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return &v, nil
}

// normalizeNumber rewrites a localized number into strconv syntax.
func normalizeNumber(s string) (string, error) {
	sign, body := "", s
	if strings.HasPrefix(body, "-") || strings.HasPrefix(body, "+") {
		sign, body = body[:1], body[1:]
	}
	commas, dots := strings.Count(body, ","), strings.Count(body, ".")

	switch {
	case commas == 0 && dots <= 1:
		return s, nil

	case commas > 0 && dots > 0:
		dec, group := ".", ","
		if strings.LastIndex(body, ",") > strings.LastIndex(body, ".") {
			dec, group = ",", "."
		}
		if strings.Count(body, dec) > 1 {
			return "", fmt.Errorf("not a number: %q", s)
		}
		i := strings.LastIndex(body, dec)
		intPart := body[:i]
		if !validGrouping(intPart, group) {
			return "", fmt.Errorf("malformed thousands grouping in %q", s)
		}
		return sign + strings.ReplaceAll(intPart, group, "") + "." + body[i+1:], nil

	default:
		// A single separator kind. Repeated, it can only group thousands.
		sep, n := ",", commas
		if commas == 0 {
			sep, n = ".", dots
		}
		if n > 1 {
			if !validGrouping(body, sep) {
				return "", fmt.Errorf("malformed thousands grouping in %q", s)
			}
			return sign + strings.ReplaceAll(body, sep, ""), nil
		}
		i := strings.Index(body, ",")
		intPart, frac := body[:i], body[i+1:]
		if len(frac) == 3 && allDigits(frac) && len(intPart) >= 1 && len(intPart) <= 3 && allDigits(intPart) && intPart[0] != '0' {
			return "", fmt.Errorf("ambiguous separator in %q: decimal comma or thousands", s)
		}
		return sign + intPart + "." + frac, nil
	}
}

// validGrouping reports whether s is digits grouped by sep in threes, with a
// leading group of one to three digits.
func validGrouping(s, sep string) bool {
	groups := strings.Split(s, sep)
	if len(groups) < 2 {
		return allDigits(s) && s != ""
	}
	if len(groups[0]) < 1 || len(groups[0]) > 3 || !allDigits(groups[0]) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "-", "nan", "#n/a", "n/a", "null":
		return true
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
