package app

import (
	"context"
	"fmt"

	"github.com/artpar/teamlens/adapters/metrics"
	"github.com/artpar/teamlens/domain/adoption"
	"github.com/artpar/teamlens/ports"
	"github.com/rs/zerolog"
)

// AdoptionService runs the adoption analysis pipeline: fetch the team
// roster, read the monthly usage exports, and compute activity metrics.
type AdoptionService struct {
	roster  ports.RosterSource
	rows    ports.UsageRowSource
	clock   ports.Clock
	metrics *metrics.Collector
	logger  zerolog.Logger

	params adoption.Params
}

// AdoptionServiceConfig bundles the dependencies of an AdoptionService.
type AdoptionServiceConfig struct {
	Roster  ports.RosterSource
	Rows    ports.UsageRowSource
	Clock   ports.Clock
	Metrics *metrics.Collector
	Logger  zerolog.Logger
	Params  adoption.Params
}

// NewAdoptionService creates the adoption analysis service. A zero
// Params falls back to the defaults anchored at the current time.
func NewAdoptionService(cfg AdoptionServiceConfig) *AdoptionService {
	return &AdoptionService{
		roster:  cfg.Roster,
		rows:    cfg.Rows,
		clock:   cfg.Clock,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		params:  cfg.Params,
	}
}

// Collect computes adoption metrics for the current roster.
func (s *AdoptionService) Collect(ctx context.Context) (*adoption.Metrics, error) {
	members, err := s.roster.FetchTeamMembers(ctx)
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("adoption", "error").Inc()
		return nil, fmt.Errorf("fetch team members: %w", err)
	}
	s.logger.Info().Int("members", len(members)).Msg("fetched team roster")

	rows, err := s.rows.Rows()
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("adoption", "error").Inc()
		return nil, fmt.Errorf("read usage exports: %w", err)
	}
	s.logger.Info().Int("rows", len(rows)).Msg("read usage export rows")

	params := s.params
	if params.ReferenceDate.IsZero() {
		params = adoption.DefaultParams(s.clock.Now())
	}

	m := adoption.Calculate(members, rows, params)

	s.metrics.RunsTotal.WithLabelValues("adoption", "ok").Inc()
	s.metrics.LastRunUnix.WithLabelValues("adoption").Set(float64(s.clock.Now().Unix()))
	s.logger.Info().
		Int("active_members", len(m.Roster.Active)).
		Int("never_used", len(m.NeverUsed)).
		Int("total_requests", int(m.TotalRequests)).
		Msg("adoption analysis complete")

	return m, nil
}
