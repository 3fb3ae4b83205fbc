// Package app wires domain logic to adapters and orchestrates the
// analysis pipelines.
package app

import (
	"context"
	"fmt"

	"github.com/artpar/teamlens/adapters/metrics"
	"github.com/artpar/teamlens/domain/billing"
	"github.com/artpar/teamlens/domain/period"
	"github.com/artpar/teamlens/ports"
	"github.com/rs/zerolog"
)

// BillingService runs the spend analysis pipeline: ensure every month
// in the window is cached, then fold the cached events into rollups.
type BillingService struct {
	source  ports.UsageSource
	cache   ports.EventCache
	clock   ports.Clock
	ids     ports.IDGenerator
	metrics *metrics.Collector
	logger  zerolog.Logger

	monthsBack int
}

// BillingServiceConfig bundles the dependencies of a BillingService.
type BillingServiceConfig struct {
	Source     ports.UsageSource
	Cache      ports.EventCache
	Clock      ports.Clock
	IDs        ports.IDGenerator
	Metrics    *metrics.Collector
	Logger     zerolog.Logger
	MonthsBack int
}

// NewBillingService creates the spend analysis service.
func NewBillingService(cfg BillingServiceConfig) *BillingService {
	if cfg.MonthsBack < 1 {
		cfg.MonthsBack = 1
	}
	return &BillingService{
		source:     cfg.Source,
		cache:      cfg.Cache,
		clock:      cfg.Clock,
		ids:        cfg.IDs,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		monthsBack: cfg.MonthsBack,
	}
}

// Periods returns the analysis window: the current month and the
// preceding months, oldest first.
func (s *BillingService) Periods() []period.Period {
	return period.MonthsBack(s.clock.Now(), s.monthsBack)
}

// Sync fetches and caches every month in the window that is not
// already cached. Cached months are never refetched; delete the cache
// file to force a refresh. A fetch failure aborts the sync without
// writing a partial month.
func (s *BillingService) Sync(ctx context.Context) error {
	for _, p := range s.Periods() {
		if s.cache.Exists(p) {
			s.metrics.CacheHits.Inc()
			s.logger.Debug().Str("month", p.Key()).Msg("month already cached")
			continue
		}
		s.metrics.CacheMisses.Inc()

		s.logger.Info().Str("month", p.Key()).Msg("fetching usage events")
		events, err := s.source.FetchMonthlyUsageEvents(ctx, p)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", p.Key(), err)
		}

		location, err := s.cache.Save(p, events)
		if err != nil {
			return fmt.Errorf("cache %s: %w", p.Key(), err)
		}
		s.logger.Info().
			Str("month", p.Key()).
			Int("events", len(events)).
			Str("file", location).
			Msg("cached usage events")
	}
	return nil
}

// Collect syncs the cache and folds every cached month into rollups.
// Months whose cache is missing after sync are skipped with a warning;
// the reconciled totals cover only the months actually analyzed.
func (s *BillingService) Collect(ctx context.Context) (*billing.Metrics, error) {
	runID := s.ids.New()
	log := s.logger.With().Str("run_id", runID).Logger()

	if err := s.Sync(ctx); err != nil {
		s.metrics.RunsTotal.WithLabelValues("billing", "error").Inc()
		return nil, err
	}

	acc := billing.NewAccumulator()
	for _, p := range s.Periods() {
		cached, found, err := s.cache.Load(p)
		if err != nil {
			s.metrics.RunsTotal.WithLabelValues("billing", "error").Inc()
			return nil, fmt.Errorf("load cache for %s: %w", p.Key(), err)
		}
		if !found {
			s.metrics.PeriodsSkipped.Inc()
			log.Warn().Str("month", p.Key()).Msg("no cached data for month, skipping")
			continue
		}
		acc.AddPeriod(p, cached.Events)
	}

	m := acc.Metrics()
	s.metrics.RunsTotal.WithLabelValues("billing", "ok").Inc()
	s.metrics.LastRunUnix.WithLabelValues("billing").Set(float64(s.clock.Now().Unix()))
	log.Info().
		Int("months_analyzed", m.MonthsAnalyzed).
		Int("users", len(m.Users)).
		Int("models", len(m.Models)).
		Float64("total_cost_cents", m.TotalCostCents).
		Msg("spend analysis complete")

	return m, nil
}
