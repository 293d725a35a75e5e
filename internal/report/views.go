package report

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/couchcryptid/water-balance-report/internal/domain"
)

// Summary is the full data dump of the current table.
type Summary struct {
	Source   string          `json:"source"`
	Version  string          `json:"version"`
	LoadedAt time.Time       `json:"loaded_at"`
	Dates    []civil.Date    `json:"dates"`
	Ponds    []string        `json:"ponds"`
	Records  []domain.Record `json:"records"`
}

// LatestDate returns the most recent reported date, false for an empty table.
func (st *State) LatestDate() (civil.Date, bool) {
	return st.Table.MaxDate()
}

// Snapshot returns the records reported on date.
func (st *State) Snapshot(date civil.Date) (domain.Snapshot, error) {
	return st.Table.Snapshot(date)
}

// Categories returns the category breakdown of date.
func (st *State) Categories(date civil.Date) (domain.CategoryBreakdown, error) {
	snap, err := st.Table.Snapshot(date)
	if err != nil {
		return domain.CategoryBreakdown{}, err
	}
	return domain.AggregateByCategory(snap), nil
}

// Alerts evaluates the early-warning status of the latest date.
func (st *State) Alerts() (domain.AlertSet, error) {
	return domain.EvaluateAlerts(st.Table)
}

// Series returns the per-pond history of field.
func (st *State) Series(field, groupBy string) (domain.Series, error) {
	return domain.ExtractSeries(st.Table, field, groupBy)
}

// Summary returns every record with the table's dates and ponds.
func (st *State) Summary() Summary {
	return Summary{
		Source:   st.Source,
		Version:  st.Version,
		LoadedAt: st.LoadedAt,
		Dates:    st.Table.Dates(),
		Ponds:    st.Table.Ponds(),
		Records:  st.Table.Records(),
	}
}

// The Service views below read the current state once; each returns
// ErrNotLoaded before the first successful refresh.

func (s *Service) Snapshot(date civil.Date) (domain.Snapshot, error) {
	st, err := s.Current()
	if err != nil {
		return domain.Snapshot{}, err
	}
	return st.Snapshot(date)
}

func (s *Service) Categories(date civil.Date) (domain.CategoryBreakdown, error) {
	st, err := s.Current()
	if err != nil {
		return domain.CategoryBreakdown{}, err
	}
	return st.Categories(date)
}

func (s *Service) Alerts() (domain.AlertSet, error) {
	st, err := s.Current()
	if err != nil {
		return domain.AlertSet{}, err
	}
	return st.Alerts()
}

func (s *Service) Series(field, groupBy string) (domain.Series, error) {
	st, err := s.Current()
	if err != nil {
		return domain.Series{}, err
	}
	return st.Series(field, groupBy)
}

func (s *Service) Summary() (Summary, error) {
	st, err := s.Current()
	if err != nil {
		return Summary{}, err
	}
	return st.Summary(), nil
}
