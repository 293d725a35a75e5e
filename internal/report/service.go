// Package report owns the reporting cycle: it ingests the source into an
// immutable table, swaps it in for readers, and raises early-warning alerts.
package report

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/water-balance-report/internal/domain"
	"github.com/couchcryptid/water-balance-report/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrNotLoaded is returned by views before the first successful ingestion.
var ErrNotLoaded = errors.New("report table has not been loaded yet")

const initialBackoff = 200 * time.Millisecond

// Source produces a table from the external report (workbook or export).
type Source interface {
	Name() string
	// Version changes whenever the underlying content may have changed.
	Version(ctx context.Context) (string, error)
	Load(ctx context.Context) (*domain.Table, error)
}

// AlertPublisher delivers early-warning alerts to downstream consumers.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, set domain.AlertSet, evaluatedAt time.Time) error
}

// State is one ingested table together with where and when it came from.
type State struct {
	Table    *domain.Table
	Source   string
	Version  string
	LoadedAt time.Time
}

// Service refreshes the table on an interval. Readers get the current table
// through Current and derive their views from it without locking; a refresh
// builds a new table and swaps the pointer.
type Service struct {
	source    Source
	publisher AlertPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration

	refreshMu sync.Mutex
	state     atomic.Pointer[State]
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPublisher enables alert publication after each table change.
func WithPublisher(p AlertPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New creates a Service reading from source every interval.
func New(source Source, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration, opts ...Option) *Service {
	s := &Service{
		source:   source,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
		interval: interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the latest ingested state, or ErrNotLoaded.
func (s *Service) Current() (*State, error) {
	st := s.state.Load()
	if st == nil {
		return nil, ErrNotLoaded
	}
	return st, nil
}

// CheckReadiness returns nil once a table has been loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.state.Load() == nil {
		return ErrNotLoaded
	}
	return nil
}

// Refresh re-ingests the source if its version changed since the last load.
// It reports whether a new table was installed. Ingestion errors are returned
// as-is and leave the previous table in place.
func (s *Service) Refresh(ctx context.Context) (bool, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := s.clock.Now()
	name := s.source.Name()

	version, err := s.source.Version(ctx)
	if err != nil {
		s.recordFailure()
		return false, err
	}
	if cur := s.state.Load(); cur != nil && cur.Version == version {
		s.metrics.Refreshes.WithLabelValues("unchanged").Inc()
		s.logger.Debug("source unchanged, refresh skipped", "source", name, "version", version)
		return false, nil
	}

	tbl, err := s.source.Load(ctx)
	if err != nil {
		s.recordFailure()
		return false, err
	}

	st := &State{Table: tbl, Source: name, Version: version, LoadedAt: s.clock.Now()}
	s.state.Store(st)

	s.metrics.Refreshes.WithLabelValues("loaded").Inc()
	s.metrics.RefreshDuration.Observe(s.clock.Since(start).Seconds())
	s.metrics.RecordsLoaded.Set(float64(tbl.Len()))

	attrs := []any{"source", name, "records", tbl.Len(), "dates", len(tbl.Dates())}
	if latest, ok := tbl.MaxDate(); ok {
		s.metrics.LatestReportDate.Set(float64(latest.In(time.UTC).Unix()))
		attrs = append(attrs, "latest_date", latest.String())
	}
	s.logger.Info("report table refreshed", attrs...)

	s.evaluateAlerts(ctx, tbl)
	return true, nil
}

func (s *Service) recordFailure() {
	s.metrics.Refreshes.WithLabelValues("error").Inc()
	s.metrics.IngestionErrors.Inc()
}

// evaluateAlerts updates the alert gauge and publishes the latest alert set.
// Failures here are logged; the new table stays installed.
func (s *Service) evaluateAlerts(ctx context.Context, tbl *domain.Table) {
	set, err := domain.EvaluateAlerts(tbl)
	if err != nil {
		s.metrics.HighAlerts.Set(0)
		s.logger.Warn("alert evaluation failed", "error", err)
		return
	}
	s.metrics.HighAlerts.Set(float64(len(set.Alerts)))

	if !set.HasAlerts() {
		return
	}
	ponds := make([]string, len(set.Alerts))
	for i, a := range set.Alerts {
		ponds[i] = a.Record.PondID
	}
	s.logger.Warn("ponds in high status", "date", set.Date.String(), "ponds", ponds)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAlerts(ctx, set, s.clock.Now()); err != nil {
		s.metrics.AlertPublishErrors.Inc()
		s.logger.Error("publish alerts failed", "error", err, "alerts", len(set.Alerts))
		return
	}
	s.metrics.AlertsPublished.Add(float64(len(set.Alerts)))
}

// Run refreshes immediately and then every interval until the context is
// cancelled. Failed refreshes are retried with exponential backoff capped at
// the refresh interval.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("report service started", "source", s.source.Name(), "refresh_interval", s.interval)
	s.metrics.ServiceRunning.Set(1)
	defer s.metrics.ServiceRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := s.interval
		if _, err := s.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("report service stopping", "reason", ctx.Err())
				return nil
			}
			s.logger.Error("refresh failed", "source", s.source.Name(), "error", err, "retry_in", backoff)
			wait = backoff
			backoff = retry.NextBackoff(backoff, s.interval)
		} else {
			backoff = initialBackoff
		}

		if !s.sleep(ctx, wait) {
			s.logger.Info("report service stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func (s *Service) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
