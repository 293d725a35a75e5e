package httpadapter_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/couchcryptid/water-balance-report/internal/adapter/httpadapter"
	"github.com/couchcryptid/water-balance-report/internal/domain"
	"github.com/couchcryptid/water-balance-report/internal/observability"
	"github.com/couchcryptid/water-balance-report/internal/report"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReports struct {
	state *report.State
}

func (m *mockReports) CheckReadiness(_ context.Context) error {
	if m.state == nil {
		return report.ErrNotLoaded
	}
	return nil
}

func (m *mockReports) Current() (*report.State, error) {
	if m.state == nil {
		return nil, report.ErrNotLoaded
	}
	return m.state, nil
}

var (
	jan1 = civil.Date{Year: 2024, Month: time.January, Day: 1}
	jan2 = civil.Date{Year: 2024, Month: time.January, Day: 2}
)

func loaded(records ...domain.Record) *mockReports {
	return &mockReports{state: &report.State{
		Table:    domain.NewTable(records),
		Source:   "Daily_Water_Balance.xlsx#Rangkum",
		Version:  "v1",
		LoadedAt: time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC),
	}}
}

func scenario() *mockReports {
	return loaded(
		domain.Record{Date: jan1, PondID: "SP1", Category: domain.CategoryLow, MaxRainfallMM: domain.Float(5)},
		domain.Record{Date: jan2, PondID: "SP1", Category: domain.CategoryHigh, MaxRainfallMM: domain.Float(40)},
		domain.Record{Date: jan2, PondID: "SP2", Category: domain.CategoryMedium},
	)
}

func newTestServer(reports httpadapter.Reports) (*httpadapter.Server, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return httpadapter.NewServer(":0", reports, metrics, slog.Default()), metrics
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(&mockReports{})
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
}

func TestReadyzReflectsLoadState(t *testing.T) {
	srv, _ := newTestServer(&mockReports{})
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/readyz").Code)

	srv, _ = newTestServer(scenario())
	assert.Equal(t, http.StatusOK, get(t, srv, "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(scenario())
	rec := get(t, srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPI_NotLoadedReturns503(t *testing.T) {
	srv, metrics := newTestServer(&mockReports{})

	for _, path := range []string{"/api/v1/dates", "/api/v1/snapshot", "/api/v1/categories", "/api/v1/alerts", "/api/v1/series?field=water_level_m", "/api/v1/records"} {
		rec := get(t, srv, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/api/v1/alerts", "503")), 0)
}

func TestAPI_Dates(t *testing.T) {
	srv, _ := newTestServer(scenario())
	rec := get(t, srv, "/api/v1/dates")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"dates":["2024-01-01","2024-01-02"],"latest":"2024-01-02"}`, rec.Body.String())
}

func TestAPI_DatesEmptyTable(t *testing.T) {
	srv, _ := newTestServer(loaded())
	rec := get(t, srv, "/api/v1/dates")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"dates":[],"latest":null}`, rec.Body.String())
}

func TestAPI_SnapshotDefaultsToLatest(t *testing.T) {
	srv, metrics := newTestServer(scenario())
	rec := get(t, srv, "/api/v1/snapshot")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "2024-01-02", body["date"])
	assert.Len(t, body["records"], 2)

	rainfall := body["rainfall"].([]any)
	require.Len(t, rainfall, 2)
	assert.Equal(t, map[string]any{"pond_id": "SP1", "max_rainfall_mm": 40.0}, rainfall[0])
	assert.Equal(t, map[string]any{"pond_id": "SP2", "max_rainfall_mm": nil}, rainfall[1])

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/api/v1/snapshot", "200")), 0)
}

func TestAPI_SnapshotExplicitDate(t *testing.T) {
	srv, _ := newTestServer(scenario())

	body := decode(t, get(t, srv, "/api/v1/snapshot?date=2024-01-01"))
	assert.Len(t, body["records"], 1)

	body = decode(t, get(t, srv, "/api/v1/snapshot?date=2024-01-05"))
	assert.Equal(t, "2024-01-05", body["date"])
	assert.Empty(t, body["records"])
}

func TestAPI_SnapshotBadDate(t *testing.T) {
	srv, _ := newTestServer(scenario())
	rec := get(t, srv, "/api/v1/snapshot?date=01-02-2024")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "invalid date")
}

func TestAPI_SnapshotConflictReturns409(t *testing.T) {
	srv, _ := newTestServer(loaded(
		domain.Record{Date: jan1, PondID: "SP1", Category: domain.CategoryLow},
		domain.Record{Date: jan1, PondID: "SP1", Category: domain.CategoryHigh},
	))

	assert.Equal(t, http.StatusConflict, get(t, srv, "/api/v1/snapshot").Code)
	assert.Equal(t, http.StatusConflict, get(t, srv, "/api/v1/categories").Code)
	assert.Equal(t, http.StatusConflict, get(t, srv, "/api/v1/alerts").Code)
}

func TestAPI_Categories(t *testing.T) {
	srv, _ := newTestServer(scenario())
	rec := get(t, srv, "/api/v1/categories?date=2024-01-02")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"date": "2024-01-02",
		"total": 2,
		"groups": [
			{"category": "Medium", "count": 1, "ponds": ["SP2"]},
			{"category": "High", "count": 1, "ponds": ["SP1"]}
		]
	}`, rec.Body.String())
}

func TestAPI_Alerts(t *testing.T) {
	srv, _ := newTestServer(scenario())
	body := decode(t, get(t, srv, "/api/v1/alerts"))

	assert.Equal(t, false, body["empty"])
	assert.Equal(t, "2024-01-02", body["date"])
	alerts := body["alerts"].([]any)
	require.Len(t, alerts, 1)
	rec := alerts[0].(map[string]any)["record"].(map[string]any)
	assert.Equal(t, "SP1", rec["pond_id"])
}

func TestAPI_AlertsEmptyTable(t *testing.T) {
	srv, _ := newTestServer(loaded())
	body := decode(t, get(t, srv, "/api/v1/alerts"))

	assert.Equal(t, true, body["empty"])
	assert.Empty(t, body["alerts"])
}

func TestAPI_Series(t *testing.T) {
	srv, _ := newTestServer(scenario())
	rec := get(t, srv, "/api/v1/series?field=max_rainfall_mm&group_by=pond_id")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"field": "max_rainfall_mm",
		"ponds": ["SP1", "SP2"],
		"points": {
			"SP1": [{"date": "2024-01-01", "value": 5}, {"date": "2024-01-02", "value": 40}],
			"SP2": [{"date": "2024-01-02", "value": null}]
		}
	}`, rec.Body.String())
}

func TestAPI_SeriesInvalidField(t *testing.T) {
	srv, _ := newTestServer(scenario())
	rec := get(t, srv, "/api/v1/series?field=depth")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body["valid"], "max_rainfall_mm")

	rec = get(t, srv, "/api/v1/series?field=max_rainfall_mm&group_by=date")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Records(t *testing.T) {
	srv, _ := newTestServer(scenario())
	body := decode(t, get(t, srv, "/api/v1/records"))

	assert.Equal(t, "Daily_Water_Balance.xlsx#Rangkum", body["source"])
	assert.Equal(t, []any{"SP1", "SP2"}, body["ponds"])
	assert.Len(t, body["records"], 3)
}

func TestAPI_RejectsPost(t *testing.T) {
	srv, _ := newTestServer(scenario())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/alerts", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPI_RespondsWithJSONContentType(t *testing.T) {
	srv, _ := newTestServer(scenario())

	for _, path := range []string{"/api/v1/dates", "/api/v1/alerts", "/api/v1/series?field=depth"} {
		rec := get(t, srv, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
		assert.True(t, json.Valid(rec.Body.Bytes()), path)
	}
}
