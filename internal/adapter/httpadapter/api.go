package httpadapter

import (
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/civil"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/water-balance-report/internal/domain"
	"github.com/couchcryptid/water-balance-report/internal/report"
)

type datesResponse struct {
	Dates  []civil.Date `json:"dates"`
	Latest *civil.Date  `json:"latest"`
}

type pondRainfall struct {
	PondID        string   `json:"pond_id"`
	MaxRainfallMM *float64 `json:"max_rainfall_mm"`
}

type snapshotResponse struct {
	Date     *civil.Date     `json:"date"`
	Records  []domain.Record `json:"records"`
	Rainfall []pondRainfall  `json:"rainfall"`
}

type categoriesResponse struct {
	Date   *civil.Date            `json:"date"`
	Total  int                    `json:"total"`
	Groups []domain.CategoryGroup `json:"groups"`
}

type errorResponse struct {
	Error string   `json:"error"`
	Valid []string `json:"valid,omitempty"`
}

func (s *Server) handleDates(w http.ResponseWriter, _ *http.Request) {
	st, err := s.reports.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := datesResponse{Dates: st.Table.Dates()}
	if resp.Dates == nil {
		resp.Dates = []civil.Date{}
	}
	if latest, ok := st.LatestDate(); ok {
		resp.Latest = &latest
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	st, date, err := s.stateForDate(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := snapshotResponse{Records: []domain.Record{}, Rainfall: []pondRainfall{}}
	if date != nil {
		snap, err := st.Snapshot(*date)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.Date = date
		resp.Records = snap.Records
		for _, rec := range snap.Records {
			resp.Rainfall = append(resp.Rainfall, pondRainfall{PondID: rec.PondID, MaxRainfallMM: rec.MaxRainfallMM})
		}
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	st, date, err := s.stateForDate(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := categoriesResponse{Groups: []domain.CategoryGroup{}}
	if date != nil {
		b, err := st.Categories(*date)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.Date = date
		resp.Total = b.Total()
		resp.Groups = b.Groups()
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	st, err := s.reports.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	set, err := st.Alerts()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, set)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	st, err := s.reports.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	series, err := st.Series(q.Get("field"), q.Get("group_by"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, series)
}

func (s *Server) handleRecords(w http.ResponseWriter, _ *http.Request) {
	st, err := s.reports.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, st.Summary())
}

// errBadDate marks an unparseable date query parameter.
var errBadDate = errors.New("invalid date")

// stateForDate resolves the date query parameter against the current state.
// An absent parameter selects the latest date; the returned date is nil when
// the table is empty.
func (s *Server) stateForDate(r *http.Request) (*report.State, *civil.Date, error) {
	st, err := s.reports.Current()
	if err != nil {
		return nil, nil, err
	}
	raw := r.URL.Query().Get("date")
	if raw == "" {
		latest, ok := st.LatestDate()
		if !ok {
			return st, nil, nil
		}
		return st, &latest, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w %q: want YYYY-MM-DD", errBadDate, raw)
	}
	return st, &d, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var invalid *domain.InvalidFieldError
	switch {
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
		resp.Valid = invalid.Valid
	case errors.Is(err, errBadDate):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDataConflict):
		status = http.StatusConflict
	case errors.Is(err, report.ErrNotLoaded), errors.Is(err, domain.ErrIngestion):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("report request failed", "error", err, "status", status)
	}
	sharedobs.WriteJSON(w, status, resp)
}
