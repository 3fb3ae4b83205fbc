// Package github provides the GitHub REST API client used to collect
// pull request data. It handles token auth, Link-header pagination,
// proactive rate-limit waits, and retry on 429 responses.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/teamlens/adapters/metrics"
	"github.com/artpar/teamlens/domain/delivery"
	"github.com/artpar/teamlens/ports"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// ErrRetriesExhausted is returned when a rate-limited request still
// fails after the configured number of attempts.
var ErrRetriesExhausted = errors.New("rate limit retries exhausted")

// APIError represents a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error %d: %s", e.StatusCode, e.Body)
}

// Config configures the GitHub client.
type Config struct {
	BaseURL      string
	Token        string
	Organization string
	Timeout      time.Duration
	PerPage      int
	MaxRetries   int           // attempts per request on 429
	RetryBase    time.Duration // fallback backoff when Retry-After is absent

	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// Client talks to the GitHub REST API for one organization.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	org        string
	perPage    int
	maxRetries int
	retryBase  time.Duration
	logger     zerolog.Logger
	metrics    *metrics.Collector
}

// NewClient creates a new GitHub client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("github: token is required")
	}
	if cfg.Organization == "" {
		return nil, errors.New("github: organization is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	perPage := cfg.PerPage
	if perPage == 0 {
		perPage = 100
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	retryBase := cfg.RetryBase
	if retryBase == 0 {
		retryBase = 2 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      cfg.Token,
		org:        cfg.Organization,
		perPage:    perPage,
		maxRetries: maxRetries,
		retryBase:  retryBase,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

type prJSON struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	MergedAt  *time.Time `json:"merged_at"`
}

// FetchPullRequests fetches all pull requests for a repository created
// on or after since, newest first, with comment, commit, and file
// counts resolved per PR. The created-descending sort lets pagination
// stop at the first PR older than the window.
func (c *Client) FetchPullRequests(ctx context.Context, repo string, since time.Time) ([]delivery.PullRequest, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/pulls?state=all&sort=created&direction=desc&per_page=%d",
		c.baseURL, c.org, repo, c.perPage)

	var raw []prJSON
	next := listURL
	for next != "" {
		var page []prJSON
		nextLink, err := c.get(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("list pulls for %s: %w", repo, err)
		}
		if len(page) == 0 {
			break
		}

		pastWindow := false
		for _, pr := range page {
			if pr.CreatedAt.Before(since) {
				pastWindow = true
				break
			}
			raw = append(raw, pr)
		}
		if pastWindow {
			break
		}
		next = nextLink
	}

	c.logger.Info().Str("repo", repo).Int("pulls", len(raw)).Msg("listed pull requests in window")

	prs := make([]delivery.PullRequest, 0, len(raw))
	for _, pr := range raw {
		comments, err := c.commentCount(ctx, repo, pr.Number)
		if err != nil {
			return nil, fmt.Errorf("pull %s#%d comments: %w", repo, pr.Number, err)
		}
		commits, err := c.countItems(ctx, fmt.Sprintf("%s/repos/%s/%s/pulls/%d/commits", c.baseURL, c.org, repo, pr.Number))
		if err != nil {
			return nil, fmt.Errorf("pull %s#%d commits: %w", repo, pr.Number, err)
		}
		files, err := c.countItems(ctx, fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files", c.baseURL, c.org, repo, pr.Number))
		if err != nil {
			return nil, fmt.Errorf("pull %s#%d files: %w", repo, pr.Number, err)
		}

		out := delivery.PullRequest{
			Repository:   repo,
			Title:        pr.Title,
			Number:       pr.Number,
			CreatedAt:    pr.CreatedAt,
			Comments:     comments,
			Commits:      commits,
			FilesChanged: files,
		}
		if pr.MergedAt != nil {
			out.MergedAt = *pr.MergedAt
		}
		prs = append(prs, out)
		if c.metrics != nil {
			c.metrics.PullRequestsFetched.Inc()
		}
	}

	return prs, nil
}

// commentCount sums review comments (code-level) and issue comments
// (general discussion) for one PR.
func (c *Client) commentCount(ctx context.Context, repo string, number int) (int, error) {
	review, err := c.countItems(ctx, fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments", c.baseURL, c.org, repo, number))
	if err != nil {
		return 0, err
	}
	issue, err := c.countItems(ctx, fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, c.org, repo, number))
	if err != nil {
		return 0, err
	}
	return review + issue, nil
}

// countItems counts the elements of a paginated collection endpoint.
func (c *Client) countItems(ctx context.Context, rawURL string) (int, error) {
	next := rawURL + "?per_page=" + strconv.Itoa(c.perPage)
	total := 0
	for next != "" {
		var page []json.RawMessage
		nextLink, err := c.get(ctx, next, &page)
		if err != nil {
			return 0, err
		}
		total += len(page)
		if len(page) < c.perPage {
			break
		}
		next = nextLink
	}
	return total, nil
}

// get sends an authenticated GET and decodes the JSON response. It
// returns the rel="next" pagination link, if any. 429 responses are
// retried, preferring the server's Retry-After over local backoff; a
// nearly-exhausted rate budget waits out the reported reset window.
func (c *Client) get(ctx context.Context, rawURL string, result any) (string, error) {
	backoff := c.retryBase
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "token "+c.token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if c.metrics != nil {
				c.metrics.RateLimitRetries.Inc()
			}
			wait := backoff
			if after, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && after > 0 {
				wait = time.Duration(after) * time.Second
			}
			c.logger.Warn().
				Str("url", rawURL).
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("github rate limited, backing off")
			if err := sleep(ctx, wait); err != nil {
				return "", err
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return "", &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				resp.Body.Close()
				return "", fmt.Errorf("decode response: %w", err)
			}
		}
		next := nextLink(resp.Header.Get("Link"))
		if err := c.respectRateBudget(ctx, resp.Header); err != nil {
			resp.Body.Close()
			return "", err
		}
		resp.Body.Close()
		return next, nil
	}

	return "", fmt.Errorf("%s after %d attempts: %w", rawURL, c.maxRetries, ErrRetriesExhausted)
}

// respectRateBudget waits until the reported reset when fewer than 10
// requests remain in the current rate window.
func (c *Client) respectRateBudget(ctx context.Context, h http.Header) error {
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil || remaining >= 10 {
		return nil
	}
	reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return nil
	}
	wait := time.Until(time.Unix(reset, 0)) + 5*time.Second
	if wait <= 0 {
		return nil
	}
	c.logger.Warn().
		Int("remaining", remaining).
		Dur("wait", wait).
		Msg("github rate budget low, waiting for reset")
	return sleep(ctx, wait)
}

// nextLink extracts the rel="next" URL from a Link header, or "".
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if strings.TrimSpace(section[1]) != `rel="next"` {
			continue
		}
		link := strings.Trim(strings.TrimSpace(section[0]), "<>")
		if _, err := url.Parse(link); err == nil {
			return link
		}
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure interface compliance.
var _ ports.PullRequestSource = (*Client)(nil)
