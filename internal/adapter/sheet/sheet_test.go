package sheet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/couchcryptid/water-balance-report/internal/config"
	"github.com/couchcryptid/water-balance-report/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLayout = Layout{Sheet: "Rangkum", HeaderRow: 2, FirstColumn: "B"}
	testHeader = []string{"Tanggal", "Settling Pond", "Kriteria", "Max Rainfall to SP (mm)", "Sisa Freeboard (m)", "Debit Keluar Actual (m3/s)"}
	jan1       = civil.Date{Year: 2024, Month: time.January, Day: 1}
	jan2       = civil.Date{Year: 2024, Month: time.January, Day: 2}
)

func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Daily_Water_Balance.xlsx")
	err := WriteXLSX(path, testLayout, "DAILY WATER BALANCE", testHeader, [][]any{
		{45292.0, "SP1", "Low", 5.0, 1.5, 0.2},
		{45292.0, "SP2", "High", 40.0, nil, 0.9},
		{45293.0, "SP1", "Medium", 12.0, 1.1, nil},
	})
	require.NoError(t, err)
	return path
}

func TestXLSXSource_Load(t *testing.T) {
	src, err := NewXLSXSource(writeTestWorkbook(t), testLayout)
	require.NoError(t, err)

	tbl, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	recs := tbl.Records()
	assert.Equal(t, jan1, recs[0].Date)
	assert.Equal(t, "SP1", recs[0].PondID)
	assert.Equal(t, domain.CategoryLow, recs[0].Category)
	assert.InDelta(t, 5.0, *recs[0].MaxRainfallMM, 1e-9)
	assert.InDelta(t, 0.2, *recs[0].ActualDischargeM3S, 1e-9)

	assert.Equal(t, domain.CategoryHigh, recs[1].Category)
	assert.Nil(t, recs[1].RemainingFreeboardM)

	assert.Equal(t, jan2, recs[2].Date)
	assert.Nil(t, recs[2].ActualDischargeM3S)
}

func TestXLSXSource_MissingSheet(t *testing.T) {
	src, err := NewXLSXSource(writeTestWorkbook(t), Layout{Sheet: "Nope", HeaderRow: 2, FirstColumn: "B"})
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIngestion))
	assert.Contains(t, err.Error(), "read sheet")
}

func TestXLSXSource_WrongFirstColumn(t *testing.T) {
	// Starting at column C drops the Tanggal header.
	src, err := NewXLSXSource(writeTestWorkbook(t), Layout{Sheet: "Rangkum", HeaderRow: 2, FirstColumn: "C"})
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	var ingest *domain.IngestionError
	require.ErrorAs(t, err, &ingest)
	assert.Equal(t, "Tanggal", ingest.Column)
}

func TestXLSXSource_HeaderRowBeyondSheet(t *testing.T) {
	src, err := NewXLSXSource(writeTestWorkbook(t), Layout{Sheet: "Rangkum", HeaderRow: 50, FirstColumn: "B"})
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header row not found")
}

func TestXLSXSource_MissingFile(t *testing.T) {
	src, err := NewXLSXSource(filepath.Join(t.TempDir(), "missing.xlsx"), testLayout)
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	assert.True(t, errors.Is(err, domain.ErrIngestion))

	_, err = src.Version(context.Background())
	assert.True(t, errors.Is(err, domain.ErrIngestion))
}

func TestXLSXSource_CancelledContext(t *testing.T) {
	src, err := NewXLSXSource(writeTestWorkbook(t), testLayout)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.Load(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, domain.ErrIngestion))
}

func TestNewXLSXSource_InvalidLayout(t *testing.T) {
	_, err := NewXLSXSource("x.xlsx", Layout{HeaderRow: 2})
	assert.Error(t, err)

	_, err = NewXLSXSource("x.xlsx", Layout{Sheet: "Rangkum", HeaderRow: 0})
	assert.Error(t, err)

	_, err = NewXLSXSource("x.xlsx", Layout{Sheet: "Rangkum", HeaderRow: 2, FirstColumn: "1B"})
	assert.Error(t, err)
}

func TestXLSXSource_Version(t *testing.T) {
	path := writeTestWorkbook(t)
	src, err := NewXLSXSource(path, testLayout)
	require.NoError(t, err)

	v1, err := src.Version(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, v1)

	v2, err := src.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	v3, err := src.Version(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

func TestCSVSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rangkum.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"\ufeffdate,pond_id,category,max_rainfall_mm,remaining_freeboard_m\n"+
			"2024-01-01,SP1,Low,5,1.5\n"+
			"2024-01-01,SP2,High,40,\n"+
			"\n"+
			"02/01/2024,SP1,Medium,\"12,5\",1.1\n"), 0o600))

	tbl, err := NewCSVSource(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	recs := tbl.Records()
	assert.Equal(t, jan1, recs[0].Date)
	assert.Nil(t, recs[1].RemainingFreeboardM)
	assert.Equal(t, jan2, recs[2].Date)
	assert.InDelta(t, 12.5, *recs[2].MaxRainfallMM, 1e-9)
}

func TestCSVSource_RoundTripWithWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, WriteCSV(path, testHeader, [][]string{
		{"2024-01-02", "SP4", "High", "20", "0.4", "1.2"},
	}))

	tbl, err := NewCSVSource(path).Load(context.Background())
	require.NoError(t, err)

	set, err := domain.EvaluateAlerts(tbl)
	require.NoError(t, err)
	require.Len(t, set.Alerts, 1)
	assert.Equal(t, "SP4", set.Alerts[0].Record.PondID)
}

func TestCSVSource_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,pond_id,category\n\"unterminated,SP1,Low\n"), 0o600))

	_, err := NewCSVSource(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIngestion))
}

func TestCSVSource_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := NewCSVSource(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header row not found")
}

func TestOpen(t *testing.T) {
	src, err := Open(&config.Config{
		SourcePath:        "Daily_Water_Balance.xlsx",
		SourceFormat:      config.FormatXLSX,
		SourceSheet:       "Rangkum",
		SourceHeaderRow:   2,
		SourceFirstColumn: "B",
	})
	require.NoError(t, err)
	assert.IsType(t, &XLSXSource{}, src)
	assert.Equal(t, "Daily_Water_Balance.xlsx#Rangkum", src.Name())

	src, err = Open(&config.Config{SourcePath: "export.csv", SourceFormat: config.FormatCSV})
	require.NoError(t, err)
	assert.IsType(t, &CSVSource{}, src)

	_, err = Open(&config.Config{SourcePath: "report.ods", SourceFormat: "ods"})
	assert.Error(t, err)
}
