package cursor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/artpar/teamlens/domain/billing"
	"github.com/artpar/teamlens/domain/period"
	"github.com/artpar/teamlens/ports"
	"golang.org/x/time/rate"
)

const usageEventsPath = "/teams/filtered-usage-events"

type usageEventsRequest struct {
	StartDate int64 `json:"startDate"`
	EndDate   int64 `json:"endDate"`
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
}

type usageEventsResponse struct {
	Pagination struct {
		NumPages    int  `json:"numPages"`
		HasNextPage bool `json:"hasNextPage"`
	} `json:"pagination"`
	UsageEvents []billing.UsageEvent `json:"usageEvents"`
}

// FetchMonthlyUsageEvents fetches all on-demand chargeable events for one
// calendar month. It paginates until the API reports no further pages,
// throttling between page requests (never before the first). Any page
// failing after retries aborts the whole period; partial results are
// discarded by the caller, never cached.
func (c *Client) FetchMonthlyUsageEvents(ctx context.Context, p period.Period) ([]billing.UsageEvent, error) {
	startMs, endMs := p.EpochRange()

	// Fresh limiter per period: the bucket starts full, so the first page
	// goes out immediately and every following page waits out the delay.
	throttle := rate.NewLimiter(rate.Every(c.delay), 1)

	var events []billing.UsageEvent
	page := 1
	numPages := 0

	for {
		if err := throttle.Wait(ctx); err != nil {
			return nil, err
		}

		c.logger.Debug().
			Str("period", p.Key()).
			Int("page", page).
			Int("num_pages", numPages).
			Msg("fetching usage events page")

		req := usageEventsRequest{
			StartDate: startMs,
			EndDate:   endMs,
			Page:      page,
			PageSize:  c.pageSize,
		}

		var resp usageEventsResponse
		if err := c.request(ctx, http.MethodPost, usageEventsPath, req, &resp); err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", p.Key(), page, err)
		}

		if c.metrics != nil {
			c.metrics.PagesFetched.Inc()
		}
		numPages = resp.Pagination.NumPages

		for _, e := range resp.UsageEvents {
			if e.IsOnDemand() {
				events = append(events, e)
				if c.metrics != nil {
					c.metrics.EventsKept.Inc()
				}
			} else if c.metrics != nil {
				c.metrics.EventsDropped.Inc()
			}
		}

		if !resp.Pagination.HasNextPage {
			break
		}
		page++
	}

	c.logger.Info().
		Str("period", p.Key()).
		Int("pages", page).
		Int("events", len(events)).
		Msg("fetched on-demand chargeable events")

	return events, nil
}

// Ensure interface compliance.
var _ ports.UsageSource = (*Client)(nil)
