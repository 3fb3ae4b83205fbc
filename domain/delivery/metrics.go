package delivery

import "sort"

// DefaultIssueTypes are the issue types the cycle time metric tracks
// when the caller does not narrow them.
var DefaultIssueTypes = []string{"Story", "Sub-task"}

// Params controls the delivery calculation.
type Params struct {
	// IssueTypes lists the issue types included in the cycle time
	// metric. Empty falls back to DefaultIssueTypes. Bug resolution
	// always tracks TypeBug regardless.
	IssueTypes []string
}

// LeadTimeStats summarizes change lead time over merged PRs that
// matched a ticket.
type LeadTimeStats struct {
	MedianHours     float64
	AvgComments     float64
	AvgCommits      float64
	AvgFilesChanged float64
	MatchedPRs      int
	NonMergedPRs    int
}

// MedianDays returns the median lead time in days.
func (s LeadTimeStats) MedianDays() float64 {
	return s.MedianHours / 24
}

// DurationStats summarizes a workflow span (In Progress to Done) over
// completed issues.
type DurationStats struct {
	MedianHours float64
	AvgHours    float64
	Completed   int
	InProgress  int
}

// MedianDays returns the median span in days.
func (s DurationStats) MedianDays() float64 {
	return s.MedianHours / 24
}

// AvgDays returns the average span in days.
func (s DurationStats) AvgDays() float64 {
	return s.AvgHours / 24
}

// Metrics is the terminal delivery aggregate handed to the renderer.
type Metrics struct {
	TotalIssues       int
	TotalPullRequests int

	LeadTime      LeadTimeStats
	CycleTime     DurationStats
	BugResolution DurationStats

	IssueTypesTracked []string
}

// MatchPullRequests pairs PRs to issues by the ticket key in the PR
// title. PRs whose title carries no key, or a key no issue has, are
// returned in unmatched and excluded from the metrics.
func MatchPullRequests(issues []Issue, prs []PullRequest) (matched, unmatched []PullRequest) {
	keys := make(map[string]struct{}, len(issues))
	for _, i := range issues {
		if i.Key != "" {
			keys[i.Key] = struct{}{}
		}
	}
	for _, pr := range prs {
		key := ParseTicketKey(pr.Title)
		if _, ok := keys[key]; key != "" && ok {
			matched = append(matched, pr)
		} else {
			unmatched = append(unmatched, pr)
		}
	}
	return matched, unmatched
}

// Calculate computes all delivery metrics. The result is deterministic
// for the same inputs; input order does not matter beyond tie display.
func Calculate(issues []Issue, prs []PullRequest, params Params) *Metrics {
	issueTypes := params.IssueTypes
	if len(issueTypes) == 0 {
		issueTypes = DefaultIssueTypes
	}

	return &Metrics{
		TotalIssues:       len(issues),
		TotalPullRequests: len(prs),
		LeadTime:          calcLeadTime(issues, prs),
		CycleTime:         calcSpan(issues, func(i Issue) bool { return containsType(issueTypes, i.Type) }),
		BugResolution:     calcSpan(issues, func(i Issue) bool { return i.Type == TypeBug }),
		IssueTypesTracked: issueTypes,
	}
}

func calcLeadTime(issues []Issue, prs []PullRequest) LeadTimeStats {
	var merged []PullRequest
	nonMerged := 0
	for _, pr := range prs {
		if pr.Merged() {
			merged = append(merged, pr)
		} else {
			nonMerged++
		}
	}

	matched, _ := MatchPullRequests(issues, merged)

	stats := LeadTimeStats{
		MatchedPRs:   len(matched),
		NonMergedPRs: nonMerged,
	}
	if len(matched) == 0 {
		return stats
	}

	hours := make([]float64, 0, len(matched))
	var comments, commits, files int
	for _, pr := range matched {
		hours = append(hours, pr.LeadTimeHours())
		comments += pr.Comments
		commits += pr.Commits
		files += pr.FilesChanged
	}

	n := float64(len(matched))
	stats.MedianHours = median(hours)
	stats.AvgComments = float64(comments) / n
	stats.AvgCommits = float64(commits) / n
	stats.AvgFilesChanged = float64(files) / n
	return stats
}

// calcSpan measures In Progress to Done over the issues the filter
// keeps. Negative spans are dropped as data quality noise.
func calcSpan(issues []Issue, keep func(Issue) bool) DurationStats {
	var stats DurationStats
	var hours []float64

	for _, i := range issues {
		if !keep(i) {
			continue
		}
		if i.Started() {
			stats.InProgress++
			continue
		}
		if !i.Completed() {
			continue
		}
		if h := i.CycleHours(); h >= 0 {
			hours = append(hours, h)
		}
	}

	stats.Completed = len(hours)
	if len(hours) == 0 {
		return stats
	}

	stats.MedianHours = median(hours)
	var sum float64
	for _, h := range hours {
		sum += h
	}
	stats.AvgHours = sum / float64(len(hours))
	return stats
}

func containsType(types []string, t string) bool {
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// median returns the middle value, averaging the two middles for
// even-length input. Empty input yields 0.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
