package web

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/artpar/teamlens/domain/adoption"
)

// RenderAdoptionDashboard renders the full team adoption dashboard.
func RenderAdoptionDashboard(m *adoption.Metrics, generatedAt time.Time) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Team Adoption - TeamLens</title>
    <style>%s</style>
</head>
<body>
    <div class="header">
        <div class="container">
            <h1>Team Adoption</h1>
            <p>Cursor IDE usage across the team</p>
            <p>Generated on %s &middot; Reference date %s</p>
        </div>
    </div>

    <div class="container">
        %s
        %s
        %s
        %s
        %s
    </div>

    <div class="footer">
        <p>TeamLens | %d team member(s), %s total requests</p>
    </div>
</body>
</html>`,
		dashboardCSS,
		generatedAt.Format("2006-01-02 15:04:05"),
		m.ReferenceDate.Format("2006-01-02"),
		adoptionSummaryCards(m),
		monthlyActivitySection(m),
		topRequestersSection(m),
		inactiveSections(m),
		neverUsedSection(m),
		len(m.Roster.All),
		formatRequests(m.TotalRequests),
	)
}

func adoptionSummaryCards(m *adoption.Metrics) string {
	rateCard := ""
	if len(m.Thresholds) > 0 {
		th := m.Thresholds[0]
		rateCard = fmt.Sprintf(`<div class="summary-card">
                <h3>%d-Day Adoption Rate</h3>
                <div class="number">%.0f%%</div>
                <p>Of active-access members</p>
            </div>`, th, m.AdoptionRate(th))
	}

	return fmt.Sprintf(`<div class="summary-cards">
            <div class="summary-card">
                <h3>Active Access</h3>
                <div class="number">%d</div>
                <p>%d owner(s), %d removed</p>
            </div>
            <div class="summary-card">
                <h3>Active This Month</h3>
                <div class="number">%d</div>
                <p>Most recent export month</p>
            </div>
            <div class="summary-card">
                <h3>Total Requests</h3>
                <div class="number">%s</div>
                <p>All export months</p>
            </div>
            <div class="summary-card">
                <h3>Never Used</h3>
                <div class="number">%d</div>
                <p>Access but no activity</p>
            </div>
            %s
        </div>`,
		len(m.Roster.Active),
		len(m.Roster.Owners),
		len(m.Roster.Removed),
		m.CurrentMonthActiveUsers,
		formatRequests(m.TotalRequests),
		len(m.NeverUsed),
		rateCard,
	)
}

func monthlyActivitySection(m *adoption.Metrics) string {
	if len(m.Monthly) == 0 {
		return emptySection("Monthly Activity", "No usage exports found.")
	}

	var rows strings.Builder
	for _, ms := range m.Monthly {
		fmt.Fprintf(&rows, `<tr>
                    <td>%s</td>
                    <td class="num">%d</td>
                    <td class="num">%s</td>
                    <td class="num">%s</td>
                </tr>`,
			html.EscapeString(ms.Period.Label()),
			ms.ActiveUsers,
			formatRequests(ms.TotalRequests),
			formatCount(ms.TotalInteractions),
		)
	}

	return fmt.Sprintf(`<div class="section">
            <div class="section-header">Monthly Activity</div>
            <div class="section-content">
                <table>
                    <tr><th>Month</th><th class="num">Active Users</th><th class="num">Requests</th><th class="num">Interactions</th></tr>
                    %s
                </table>
            </div>
        </div>`, rows.String())
}

func topRequestersSection(m *adoption.Metrics) string {
	if len(m.TopUsers) == 0 {
		return emptySection("Top Users", "No usage rows in the exports.")
	}

	var rows strings.Builder
	for i, u := range m.TopUsers {
		fmt.Fprintf(&rows, `<tr>
                    <td class="num">%d</td>
                    <td>%s</td>
                    <td class="num">%s</td>
                </tr>`,
			i+1,
			html.EscapeString(u.Email),
			formatRequests(u.Requests),
		)
	}

	return fmt.Sprintf(`<div class="section">
            <div class="section-header">Top Users</div>
            <div class="section-content">
                <table>
                    <tr><th class="num">#</th><th>User</th><th class="num">Requests</th></tr>
                    %s
                </table>
            </div>
        </div>`, rows.String())
}

func inactiveSections(m *adoption.Metrics) string {
	var sections strings.Builder
	for _, th := range m.Thresholds {
		users := m.Inactive[th]
		title := fmt.Sprintf("Inactive %d+ Days", th)
		if len(users) == 0 {
			sections.WriteString(emptySection(title, "Everyone with access was active in this window."))
			continue
		}

		var rows strings.Builder
		for _, u := range users {
			last := "never"
			badge := `<span class="badge badge-never">never used</span>`
			if u.State == adoption.ActivityInactive {
				last = u.LastActivity.Format("2006-01-02")
				badge = fmt.Sprintf(`<span class="badge badge-stale">%d days</span>`, u.DaysInactive)
			}
			fmt.Fprintf(&rows, `<tr>
                    <td>%s</td>
                    <td>%s</td>
                    <td>%s</td>
                    <td>%s</td>
                    <td>%s</td>
                </tr>`,
				html.EscapeString(displayName(u)),
				html.EscapeString(u.Email),
				html.EscapeString(u.Role),
				last,
				badge,
			)
		}

		fmt.Fprintf(&sections, `<div class="section">
            <div class="section-header">%s (%d)</div>
            <div class="section-content">
                <table>
                    <tr><th>Name</th><th>Email</th><th>Role</th><th>Last Activity</th><th>Status</th></tr>
                    %s
                </table>
            </div>
        </div>`, title, len(users), rows.String())
	}
	return sections.String()
}

func neverUsedSection(m *adoption.Metrics) string {
	if len(m.NeverUsed) == 0 {
		return emptySection("Never Used", "Every member with access has at least one usage row.")
	}

	var rows strings.Builder
	for _, u := range m.NeverUsed {
		fmt.Fprintf(&rows, `<tr>
                    <td>%s</td>
                    <td>%s</td>
                    <td>%s</td>
                </tr>`,
			html.EscapeString(displayName(u)),
			html.EscapeString(u.Email),
			html.EscapeString(u.Role),
		)
	}

	return fmt.Sprintf(`<div class="section">
            <div class="section-header">Never Used (%d)</div>
            <div class="section-content">
                <table>
                    <tr><th>Name</th><th>Email</th><th>Role</th></tr>
                    %s
                </table>
            </div>
        </div>`, len(m.NeverUsed), rows.String())
}

func displayName(u adoption.InactiveUser) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// formatRequests renders a request count; exports carry fractional
// counts but whole numbers read better on the dashboard.
func formatRequests(v float64) string {
	return groupThousands(fmt.Sprintf("%.0f", v))
}
