// Package jira provides the Atlassian REST API client used to collect
// issue data. Issues are fetched in monthly JQL chunks, subdividing
// any window that hits the search result cap, and each issue's
// workflow timestamps are resolved from its expanded changelog.
package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/teamlens/adapters/metrics"
	"github.com/artpar/teamlens/domain/delivery"
	"github.com/artpar/teamlens/ports"
	"github.com/rs/zerolog"
)

// resultCap is the search result ceiling per JQL request. A window
// returning exactly this many issues is assumed truncated and split.
const resultCap = 100

// maxSubdivisions bounds the recursive window splitting.
const maxSubdivisions = 10

// APIError represents a non-2xx response from the Jira API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira api error %d: %s", e.StatusCode, e.Body)
}

// Config configures the Jira client.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
	Timeout  time.Duration

	// InProgressStatuses and DoneStatuses name the workflow statuses
	// whose latest transition stamps InProgressAt and DoneAt.
	InProgressStatuses []string
	DoneStatuses       []string

	Clock   ports.Clock
	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// Client talks to one Jira instance with basic auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
	apiToken   string
	inProgress []string
	done       []string
	clock      ports.Clock
	logger     zerolog.Logger
	metrics    *metrics.Collector
}

// NewClient creates a new Jira client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("jira: base URL is required")
	}
	if cfg.Email == "" || cfg.APIToken == "" {
		return nil, errors.New("jira: email and API token are required")
	}
	if cfg.Clock == nil {
		return nil, errors.New("jira: clock is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	inProgress := cfg.InProgressStatuses
	if len(inProgress) == 0 {
		inProgress = []string{"In Progress"}
	}
	done := cfg.DoneStatuses
	if len(done) == 0 {
		done = []string{"Done"}
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		email:      cfg.Email,
		apiToken:   cfg.APIToken,
		inProgress: inProgress,
		done:       done,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

type issueJSON struct {
	Key    string `json:"key"`
	Fields struct {
		Summary   string `json:"summary"`
		Created   string `json:"created"`
		IssueType struct {
			Name string `json:"name"`
		} `json:"issuetype"`
	} `json:"fields"`
	Changelog struct {
		Histories []struct {
			Created string `json:"created"`
			Items   []struct {
				Field    string `json:"field"`
				ToString string `json:"toString"`
			} `json:"items"`
		} `json:"histories"`
	} `json:"changelog"`
}

type searchResponse struct {
	Issues []issueJSON `json:"issues"`
}

// FetchIssues fetches all issues created in the trailing monthsBack
// window, one month per JQL query, deduplicating issues that appear in
// adjacent windows.
func (c *Client) FetchIssues(ctx context.Context, projectKey string, monthsBack int) ([]delivery.Issue, error) {
	if monthsBack < 1 {
		monthsBack = 1
	}
	end := c.clock.Now()

	var issues []delivery.Issue
	seen := make(map[string]struct{})

	for offset := 0; offset < monthsBack; offset++ {
		monthEnd := end.AddDate(0, -offset, 0)
		monthStart := monthEnd.AddDate(0, -1, 0)

		raw, err := c.fetchWindow(ctx, projectKey, monthStart, monthEnd, 0)
		if err != nil {
			return nil, fmt.Errorf("fetch issues %s to %s: %w",
				monthStart.Format("2006-01-02"), monthEnd.Format("2006-01-02"), err)
		}

		for _, r := range raw {
			if _, dup := seen[r.Key]; dup || r.Key == "" {
				continue
			}
			seen[r.Key] = struct{}{}
			issues = append(issues, c.toIssue(r))
			if c.metrics != nil {
				c.metrics.IssuesFetched.Inc()
			}
		}
	}

	c.logger.Info().
		Str("project", projectKey).
		Int("months", monthsBack).
		Int("issues", len(issues)).
		Msg("fetched issue tracker window")
	return issues, nil
}

// fetchWindow fetches one creation-date window, halving it when the
// result hits the search cap. Windows of a day or less are returned
// as-is even when capped.
func (c *Client) fetchWindow(ctx context.Context, projectKey string, start, end time.Time, depth int) ([]issueJSON, error) {
	if depth > maxSubdivisions {
		c.logger.Warn().Str("project", projectKey).Msg("window subdivision limit reached")
		return nil, nil
	}

	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")
	jql := fmt.Sprintf(`project=%s AND created >= %q AND created <= %q ORDER BY created DESC`,
		projectKey, startStr, endStr)

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", "1000")
	params.Set("expand", "changelog")
	params.Set("fields", "key,summary,issuetype,created,status")

	var resp searchResponse
	if err := c.get(ctx, "/rest/api/3/search/jql?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	if len(resp.Issues) == resultCap {
		days := int(end.Sub(start).Hours() / 24)
		if days <= 1 {
			c.logger.Warn().
				Str("window", startStr+".."+endStr).
				Msg("capped single-day window, keeping truncated result")
			return resp.Issues, nil
		}

		mid := start.AddDate(0, 0, days/2)
		c.logger.Warn().
			Str("window", startStr+".."+endStr).
			Str("mid", mid.Format("2006-01-02")).
			Msg("window hit result cap, subdividing")

		first, err := c.fetchWindow(ctx, projectKey, start, mid, depth+1)
		if err != nil {
			return nil, err
		}
		second, err := c.fetchWindow(ctx, projectKey, mid, end, depth+1)
		if err != nil {
			return nil, err
		}
		return append(first, second...), nil
	}

	return resp.Issues, nil
}

// toIssue flattens one raw issue, resolving the latest transition into
// each tracked status set from the changelog.
func (c *Client) toIssue(r issueJSON) delivery.Issue {
	issue := delivery.Issue{
		Key:     r.Key,
		Summary: r.Fields.Summary,
		Type:    r.Fields.IssueType.Name,
		Created: parseTimestamp(r.Fields.Created),
	}

	for _, h := range r.Changelog.Histories {
		at := parseTimestamp(h.Created)
		for _, item := range h.Items {
			if item.Field != "status" {
				continue
			}
			if containsStatus(c.inProgress, item.ToString) {
				issue.InProgressAt = at
			}
			if containsStatus(c.done, item.ToString) {
				issue.DoneAt = at
			}
		}
	}
	return issue
}

func containsStatus(statuses []string, s string) bool {
	for _, want := range statuses {
		if s == want {
			return true
		}
	}
	return false
}

// parseTimestamp handles the Jira changelog format with milliseconds
// and a compact zone offset, falling back to RFC 3339. Unparsable
// values yield the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// get sends an authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Ensure interface compliance.
var _ ports.IssueSource = (*Client)(nil)
