// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/teamlens/domain/adoption"
	"github.com/artpar/teamlens/domain/billing"
	"github.com/artpar/teamlens/domain/delivery"
	"github.com/artpar/teamlens/domain/period"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers (run IDs).
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Source Ports
// -----------------------------------------------------------------------------

// UsageSource fetches one period of on-demand chargeable usage events
// from the Admin API. Implementations handle pagination and rate limits;
// an error means the period must be treated as not fetched (partial
// results are discarded, never cached).
type UsageSource interface {
	FetchMonthlyUsageEvents(ctx context.Context, p period.Period) ([]billing.UsageEvent, error)
}

// RosterSource fetches the current team roster from the Admin API.
type RosterSource interface {
	FetchTeamMembers(ctx context.Context) ([]adoption.Member, error)
}

// UsageRowSource yields interaction rows from the monthly usage exports.
type UsageRowSource interface {
	Rows() ([]adoption.Row, error)
}

// PullRequestSource fetches a repository's pull requests created on or
// after since, review stats included.
type PullRequestSource interface {
	FetchPullRequests(ctx context.Context, repo string, since time.Time) ([]delivery.PullRequest, error)
}

// IssueSource fetches a project's issues for the trailing window,
// workflow timestamps resolved from each issue's changelog.
type IssueSource interface {
	FetchIssues(ctx context.Context, projectKey string, monthsBack int) ([]delivery.Issue, error)
}

// -----------------------------------------------------------------------------
// Cache Port
// -----------------------------------------------------------------------------

// MonthCache is the per-period document held by the event cache.
type MonthCache struct {
	Month       string               `json:"month"`
	FetchedAt   time.Time            `json:"fetched_at"`
	TotalEvents int                  `json:"total_events"`
	Events      []billing.UsageEvent `json:"events"`
}

// EventCache persists one document per period.
//
// A present document is a full substitute for fetching: periods are
// written once and treated as immutable and authoritative afterwards.
// The only way to refresh a period is to delete its document.
type EventCache interface {
	// Exists reports whether a document is cached for the period.
	Exists(p period.Period) bool

	// Save writes the period's document, creating parent directories as
	// needed and overwriting unconditionally. Returns the storage location.
	Save(p period.Period, events []billing.UsageEvent) (string, error)

	// Load returns the stored document verbatim. A missing document is
	// (zero, false, nil); only unreadable or corrupt storage is an error.
	Load(p period.Period) (MonthCache, bool, error)
}
