// Command summarize prints the daily water balance report for one day: pond
// counts per status, the ponds in each status, rainfall per pond and the
// early-warning status of the latest reported day. With -series it also
// prints the history of one measurement per pond.
//
// Usage:
//
//	go run ./cmd/summarize -source Daily_Water_Balance.xlsx -date 2024-01-02
//	go run ./cmd/summarize -source export.csv -series remaining_freeboard_m
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/couchcryptid/water-balance-report/internal/adapter/sheet"
	"github.com/couchcryptid/water-balance-report/internal/config"
	"github.com/couchcryptid/water-balance-report/internal/domain"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	source := fs.String("source", "Daily_Water_Balance.xlsx", "workbook (.xlsx) or CSV export to read")
	sheetName := fs.String("sheet", "Rangkum", "worksheet holding the report table")
	headerRow := fs.Int("header-row", 2, "1-based header row of the workbook table")
	firstColumn := fs.String("first-column", "B", "first column of the workbook table")
	date := fs.String("date", "", "report date (YYYY-MM-DD); defaults to the latest date")
	series := fs.String("series", "", "optional measurement to print per pond: "+strings.Join(domain.Fields(), ", "))
	if err := fs.Parse(args); err != nil {
		return 2
	}

	src, err := sheet.Open(&config.Config{
		SourcePath:        *source,
		SourceFormat:      config.InferFormat(*source),
		SourceSheet:       *sheetName,
		SourceHeaderRow:   *headerRow,
		SourceFirstColumn: strings.ToUpper(*firstColumn),
	})
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}
	tbl, err := src.Load(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	var day *civil.Date
	if *date != "" {
		d, err := civil.ParseDate(*date)
		if err != nil {
			fmt.Fprintf(stderr, "FATAL: invalid -date %q: want YYYY-MM-DD\n", *date)
			return 1
		}
		day = &d
	}

	if err := summarize(stdout, src.Name(), tbl, day, *series); err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}
	return 0
}

// summarize writes the report of day (latest when nil) and, when field is
// set, the per-pond series of that field.
func summarize(w io.Writer, name string, tbl *domain.Table, day *civil.Date, field string) error {
	fmt.Fprintln(w, "=== Daily Water Balance Report ===")
	fmt.Fprintf(w, "Source:  %s\n", name)
	fmt.Fprintf(w, "Records: %d across %d dates, %d ponds\n", tbl.Len(), len(tbl.Dates()), len(tbl.Ponds()))

	if day == nil {
		if latest, ok := tbl.MaxDate(); ok {
			day = &latest
		}
	}
	if day == nil {
		fmt.Fprintln(w, "\nNo data available.")
	} else if err := writeDay(w, tbl, *day); err != nil {
		return err
	}

	if err := writeAlerts(w, tbl); err != nil {
		return err
	}

	if field != "" {
		return writeSeries(w, tbl, field)
	}
	return nil
}

func writeDay(w io.Writer, tbl *domain.Table, day civil.Date) error {
	snap, err := tbl.Snapshot(day)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n--- %s ---\n", day)
	if snap.IsEmpty() {
		fmt.Fprintln(w, "  No records for this date.")
		return nil
	}

	breakdown := domain.AggregateByCategory(snap)
	fmt.Fprintln(w, "Status counts:")
	for _, g := range breakdown.Groups() {
		fmt.Fprintf(w, "  %-8s %2d  %s\n", g.Category, g.Count, strings.Join(g.Ponds, ", "))
	}

	fmt.Fprintln(w, "Rainfall per pond (mm):")
	for _, r := range snap.Records {
		fmt.Fprintf(w, "  %-6s %8s\n", r.PondID, formatValue(r.MaxRainfallMM))
	}
	return nil
}

func writeAlerts(w io.Writer, tbl *domain.Table) error {
	set, err := domain.EvaluateAlerts(tbl)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nEarly warning:")
	switch {
	case set.Empty:
		fmt.Fprintln(w, "  No data available.")
	case !set.HasAlerts():
		fmt.Fprintf(w, "  %s: no pond in High status.\n", set.Date)
	default:
		fmt.Fprintf(w, "  %s: %d pond(s) in High status\n", set.Date, len(set.Alerts))
		for _, a := range set.Alerts {
			fmt.Fprintf(w, "    \033[31m%s\033[0m freeboard %s m, rainfall %s mm\n",
				a.Record.PondID, formatValue(a.Record.RemainingFreeboardM), formatValue(a.Record.MaxRainfallMM))
		}
	}
	return nil
}

func writeSeries(w io.Writer, tbl *domain.Table, field string) error {
	s, err := domain.ExtractSeries(tbl, field, domain.GroupByPond)
	if err != nil {
		var invalid *domain.InvalidFieldError
		if errors.As(err, &invalid) {
			return fmt.Errorf("%w; choose one of -series %s", err, strings.Join(invalid.Valid, ", "))
		}
		return err
	}
	fmt.Fprintf(w, "\nSeries %s:\n", s.Field)
	for _, pond := range s.Ponds {
		parts := make([]string, 0, len(s.Points[pond]))
		for _, p := range s.Points[pond] {
			parts = append(parts, p.Date.String()+"="+formatValue(p.Value))
		}
		fmt.Fprintf(w, "  %-6s %s\n", pond, strings.Join(parts, "  "))
	}
	return nil
}

// formatValue renders an absent measurement as "-".
func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
