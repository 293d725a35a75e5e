// Command genmock writes a deterministic sample of the daily water balance
// report for local runs and manual testing: a workbook laid out like the
// Rangkum sheet (title on row 1, header on row 2, table from column B) and
// the same rows as a flat CSV export.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -xlsx data/mock/Daily_Water_Balance.xlsx \
//	  -csv data/mock/Daily_Water_Balance.csv \
//	  -start 2024-01-01 -days 14
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/couchcryptid/water-balance-report/internal/adapter/sheet"
	"github.com/couchcryptid/water-balance-report/internal/domain"
)

var (
	ponds  = []string{"SP1", "SP2", "SP3", "SP4", "SP5", "SP6"}
	layout = sheet.Layout{Sheet: "Rangkum", HeaderRow: 2, FirstColumn: "B"}

	// excelEpoch is day zero of the workbook date system.
	excelEpoch = civil.Date{Year: 1899, Month: 12, Day: 30}
)

// sample is one generated pond-day. Nil pointers are left blank in the output.
type sample struct {
	date      civil.Date
	pond      string
	category  string
	rainfall  *float64
	freeboard *float64
	discharge *float64
	tssIn     *float64
	tssOut    *float64
	level     *float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	xlsxOut := flag.String("xlsx", "Daily_Water_Balance.xlsx", "output path for the sample workbook")
	csvOut := flag.String("csv", "", "optional output path for the CSV export")
	start := flag.String("start", "2024-01-01", "first report date (YYYY-MM-DD)")
	days := flag.Int("days", 14, "number of report days")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	first, err := civil.ParseDate(*start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if *days < 1 {
		return fmt.Errorf("-days must be >= 1")
	}

	samples := generate(first, *days, rand.New(rand.NewPCG(*seed, *seed)))

	header := domain.ColumnHeaders()
	if err := sheet.WriteXLSX(*xlsxOut, layout, "DAILY WATER BALANCE LW AREA", header, xlsxRows(samples)); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	log.Printf("wrote workbook: %s (%d rows)", *xlsxOut, len(samples))

	if *csvOut != "" {
		if err := sheet.WriteCSV(*csvOut, header, csvRows(samples)); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		log.Printf("wrote csv: %s", *csvOut)
	}

	printStats(samples)
	return nil
}

// generate produces one sample per pond per day. Freeboard shrinks with
// rainfall and recovers on dry days; the category follows remaining freeboard.
func generate(first civil.Date, days int, rng *rand.Rand) []sample {
	freeboard := make(map[string]float64, len(ponds))
	for _, p := range ponds {
		freeboard[p] = 1.5 + rng.Float64()
	}

	out := make([]sample, 0, days*len(ponds))
	for d := range days {
		date := first.AddDays(d)
		for i, p := range ponds {
			rain := round(math.Max(0, rng.NormFloat64()*15+10), 1)
			fb := math.Max(0.05, freeboard[p]-rain/60+0.25)
			fb = math.Min(fb, 2.5)
			freeboard[p] = fb

			s := sample{
				date:      date,
				pond:      p,
				category:  classify(fb),
				rainfall:  ptr(rain),
				freeboard: ptr(round(fb, 2)),
				discharge: ptr(round(0.1+rain/40+rng.Float64()*0.2, 3)),
				tssIn:     ptr(round(rain*0.8+rng.Float64()*5, 2)),
				tssOut:    ptr(round(rain*0.2+rng.Float64(), 2)),
				level:     ptr(round(3-fb, 2)),
			}
			// Gaps the way the field teams leave them.
			if (d+i)%9 == 4 {
				s.discharge = nil
			}
			if (d*len(ponds)+i)%17 == 0 {
				s.tssIn, s.tssOut = nil, nil
			}
			out = append(out, s)
		}
	}
	return out
}

func classify(freeboard float64) string {
	switch {
	case freeboard < 0.5:
		return "High"
	case freeboard < 1.0:
		return "Medium"
	default:
		return "Low"
	}
}

func xlsxRows(samples []sample) [][]any {
	rows := make([][]any, len(samples))
	for i, s := range samples {
		rows[i] = []any{
			float64(s.date.DaysSince(excelEpoch)), s.pond, s.category,
			cell(s.rainfall), cell(s.freeboard), cell(s.discharge),
			cell(s.tssIn), cell(s.tssOut), cell(s.level),
		}
	}
	return rows
}

func csvRows(samples []sample) [][]string {
	rows := make([][]string, len(samples))
	for i, s := range samples {
		rows[i] = []string{
			s.date.String(), s.pond, s.category,
			text(s.rainfall), text(s.freeboard), text(s.discharge),
			text(s.tssIn), text(s.tssOut), text(s.level),
		}
	}
	return rows
}

func printStats(samples []sample) {
	counts := map[string]int{}
	for _, s := range samples {
		counts[s.category]++
	}
	fmt.Printf("\nCategory distribution (%d rows):\n", len(samples))
	for _, c := range []string{"Low", "Medium", "High"} {
		fmt.Printf("  %-8s %d\n", c, counts[c])
	}
}

// cell returns nil for absent values so the workbook cell stays blank.
func cell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func text(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func ptr(v float64) *float64 { return &v }

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
