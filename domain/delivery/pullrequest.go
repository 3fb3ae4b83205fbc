// Package delivery computes team delivery metrics from source-control
// pull requests and issue-tracker tickets: change lead time, cycle
// time, and bug resolution time.
//
// All functions are pure - no side effects.
package delivery

import (
	"regexp"
	"strings"
	"time"
)

// PullRequest is one pull request with the review stats attached.
// MergedAt is the zero time for PRs that were never merged.
type PullRequest struct {
	Repository   string
	Title        string
	Number       int
	CreatedAt    time.Time
	MergedAt     time.Time
	Comments     int
	Commits      int
	FilesChanged int
}

// Merged reports whether the PR reached the main line.
func (pr PullRequest) Merged() bool {
	return !pr.MergedAt.IsZero()
}

// LeadTimeHours returns the hours from creation to merge, or 0 for an
// unmerged PR.
func (pr PullRequest) LeadTimeHours() float64 {
	if !pr.Merged() {
		return 0
	}
	return pr.MergedAt.Sub(pr.CreatedAt).Hours()
}

// Titles follow the "KEY-123: ..." convention; the prefix is matched
// case-insensitively, the number exactly.
var ticketKeyPattern = regexp.MustCompile(`^([A-Za-z]+)-(\d+):`)

// ParseTicketKey extracts the normalized ticket key from a PR title,
// or "" when the title does not follow the convention.
func ParseTicketKey(title string) string {
	m := ticketKeyPattern.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + "-" + m[2]
}
