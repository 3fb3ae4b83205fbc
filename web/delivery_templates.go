package web

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/artpar/teamlens/domain/delivery"
)

// RenderDeliveryDashboard renders the delivery metrics dashboard.
func RenderDeliveryDashboard(m *delivery.Metrics, generatedAt time.Time) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Delivery Metrics - TeamLens</title>
    <style>%s</style>
</head>
<body>
    <div class="header">
        <div class="container">
            <h1>Delivery Metrics</h1>
            <p>Change lead time, cycle time, and bug resolution</p>
            <p>Generated on %s</p>
        </div>
    </div>

    <div class="container">
        %s
        %s
        %s
        %s
    </div>

    <div class="footer">
        <p>TeamLens | %d issue(s) and %d pull request(s) analyzed</p>
    </div>
</body>
</html>`,
		dashboardCSS,
		generatedAt.Format("2006-01-02 15:04:05"),
		deliverySummaryCards(m),
		leadTimeSection(m),
		cycleTimeSection(m),
		bugResolutionSection(m),
		m.TotalIssues,
		m.TotalPullRequests,
	)
}

func deliverySummaryCards(m *delivery.Metrics) string {
	return fmt.Sprintf(`<div class="summary-cards">
            <div class="summary-card">
                <h3>Tracked Issues</h3>
                <div class="number">%d</div>
                <p>All issues in the window</p>
            </div>
            <div class="summary-card">
                <h3>Matched PRs</h3>
                <div class="number">%d</div>
                <p>Merged PRs tied to a ticket</p>
            </div>
            <div class="summary-card">
                <h3>Total Pull Requests</h3>
                <div class="number">%d</div>
                <p>Across all repositories</p>
            </div>
            <div class="summary-card">
                <h3>Non-Merged PRs</h3>
                <div class="number">%d</div>
                <p>Still open or closed unmerged</p>
            </div>
        </div>`,
		m.TotalIssues,
		m.LeadTime.MatchedPRs,
		m.TotalPullRequests,
		m.LeadTime.NonMergedPRs,
	)
}

func leadTimeSection(m *delivery.Metrics) string {
	lt := m.LeadTime
	if lt.MatchedPRs == 0 {
		return emptySection("Change Lead Time", "No merged PRs matched a ticket in the window.")
	}

	return fmt.Sprintf(`<div class="section">
            <div class="section-header">Change Lead Time</div>
            <div class="section-content">
                <table>
                    <tr><th>Metric</th><th class="num">Value</th></tr>
                    <tr><td>Median time to merge</td><td class="num">%s</td></tr>
                    <tr><td>Average commits per PR</td><td class="num">%.1f</td></tr>
                    <tr><td>Average files changed per PR</td><td class="num">%.1f</td></tr>
                    <tr><td>Average comments per PR</td><td class="num">%.1f</td></tr>
                </table>
                <p class="empty-note">Based on %d merged PR(s) matched to tickets; %d non-merged PR(s) excluded.</p>
            </div>
        </div>`,
		formatSpan(lt.MedianHours),
		lt.AvgCommits,
		lt.AvgFilesChanged,
		lt.AvgComments,
		lt.MatchedPRs,
		lt.NonMergedPRs,
	)
}

func cycleTimeSection(m *delivery.Metrics) string {
	ct := m.CycleTime
	if ct.Completed == 0 {
		return emptySection("Cycle Time", "No completed issues in the window.")
	}

	return fmt.Sprintf(`<div class="section">
            <div class="section-header">Cycle Time</div>
            <div class="section-content">
                <table>
                    <tr><th>Metric</th><th class="num">Value</th></tr>
                    <tr><td>Median (In Progress to Done)</td><td class="num">%s</td></tr>
                    <tr><td>Average (In Progress to Done)</td><td class="num">%s</td></tr>
                    <tr><td>Completed issues</td><td class="num">%d</td></tr>
                    <tr><td>Still in progress</td><td class="num">%d</td></tr>
                </table>
                <p class="empty-note">Tracking issue types: %s. Issues with missing timestamps are excluded.</p>
            </div>
        </div>`,
		formatSpan(ct.MedianHours),
		formatSpan(ct.AvgHours),
		ct.Completed,
		ct.InProgress,
		html.EscapeString(strings.Join(m.IssueTypesTracked, ", ")),
	)
}

func bugResolutionSection(m *delivery.Metrics) string {
	br := m.BugResolution
	if br.Completed == 0 {
		return emptySection("Bug Resolution Time", "No resolved bugs in the window.")
	}

	return fmt.Sprintf(`<div class="section">
            <div class="section-header">Bug Resolution Time</div>
            <div class="section-content">
                <table>
                    <tr><th>Metric</th><th class="num">Value</th></tr>
                    <tr><td>Median (In Progress to Done)</td><td class="num">%s</td></tr>
                    <tr><td>Average (In Progress to Done)</td><td class="num">%s</td></tr>
                    <tr><td>Resolved bugs</td><td class="num">%d</td></tr>
                    <tr><td>Bugs still in progress</td><td class="num">%d</td></tr>
                </table>
            </div>
        </div>`,
		formatSpan(br.MedianHours),
		formatSpan(br.AvgHours),
		br.Completed,
		br.InProgress,
	)
}

// formatSpan renders a duration in days when it reaches one, in hours
// below that.
func formatSpan(hours float64) string {
	if hours == 0 {
		return "0 hours"
	}
	if days := hours / 24; days >= 1 {
		return fmt.Sprintf("%.1f days", days)
	}
	return fmt.Sprintf("%.1f hours", hours)
}
