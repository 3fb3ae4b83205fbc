package web

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/artpar/teamlens/domain/billing"
)

// RenderBillingDashboard renders the full on-demand spend dashboard.
func RenderBillingDashboard(m *billing.Metrics, topCount int, generatedAt time.Time) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>On-Demand Spend - TeamLens</title>
    <style>%s</style>
</head>
<body>
    <div class="header">
        <div class="container">
            <h1>On-Demand Spend</h1>
            <p>Cursor IDE usage-based billing</p>
            <p>Generated on %s</p>
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
        <p>TeamLens | %d month(s) analyzed, %s requests</p>
    </div>
</body>
</html>`,
		dashboardCSS,
		generatedAt.Format("2006-01-02 15:04:05"),
		billingSummaryCards(m),
		monthlyBreakdownSection(m),
		topSpendersSection(m, topCount),
		modelStatsSection(m),
		modelUsersSection(m, topCount),
		m.MonthsAnalyzed,
		formatCount(m.TotalRequests),
	)
}

func billingSummaryCards(m *billing.Metrics) string {
	return fmt.Sprintf(`<div class="summary-cards">
            <div class="summary-card">
                <h3>Total On-Demand Spend</h3>
                <div class="number">$%s</div>
                <p>Across %d month(s)</p>
            </div>
            <div class="summary-card">
                <h3>Total Requests</h3>
                <div class="number">%s</div>
                <p>Chargeable on-demand events</p>
            </div>
            <div class="summary-card">
                <h3>Unique Users</h3>
                <div class="number">%d</div>
                <p>With on-demand spend</p>
            </div>
            <div class="summary-card">
                <h3>Unique Models</h3>
                <div class="number">%d</div>
                <p>Billed in the window</p>
            </div>
            <div class="summary-card">
                <h3>Top Spender</h3>
                <div class="number" style="font-size:1.2rem">%s</div>
                <p>Highest total spend</p>
            </div>
            <div class="summary-card">
                <h3>Costliest Model</h3>
                <div class="number" style="font-size:1.2rem">%s</div>
                <p>Highest total spend</p>
            </div>
        </div>`,
		formatDollars(m.TotalCostDollars()),
		m.MonthsAnalyzed,
		formatCount(m.TotalRequests),
		len(m.Users),
		len(m.Models),
		html.EscapeString(m.TopSpenderEmail()),
		html.EscapeString(m.TopCostModel()),
	)
}

func monthlyBreakdownSection(m *billing.Metrics) string {
	if len(m.Breakdowns) == 0 {
		return emptySection("Monthly Costs", "No cached months to analyze.")
	}

	var rows strings.Builder
	for _, b := range m.Breakdowns {
		fmt.Fprintf(&rows, `<tr>
                    <td>%s</td>
                    <td class="num">$%s</td>
                    <td class="num">%s</td>
                    <td class="num">%d</td>
                    <td class="num">%d</td>
                </tr>`,
			html.EscapeString(b.Period.Label()),
			formatDollars(b.TotalCostDollars()),
			formatCount(b.TotalRequests),
			len(b.UserCosts),
			len(b.ModelCosts),
		)
	}

	return fmt.Sprintf(`<div class="section">
            <div class="section-header">Monthly Costs</div>
            <div class="section-content">
                <table>
                    <tr><th>Month</th><th class="num">Cost</th><th class="num">Requests</th><th class="num">Users</th><th class="num">Models</th></tr>
                    %s
                </table>
            </div>
        </div>`, rows.String())
}

func topSpendersSection(m *billing.Metrics, topCount int) string {
	users := m.TopUsers(topCount)
	if len(users) == 0 {
		return emptySection("Top Spenders", "No on-demand spend in the analyzed months.")
	}

	var rows strings.Builder
	for i, u := range users {
		fmt.Fprintf(&rows, `<tr>
                    <td class="num">%d</td>
                    <td>%s</td>
                    <td class="num">$%s</td>
                    <td class="num">%s</td>
                    <td class="num">%.1f&cent;</td>
                    <td>%s</td>
                </tr>`,
			i+1,
			html.EscapeString(u.Email),
			formatDollars(u.TotalCostDollars()),
			formatCount(u.TotalRequests),
			u.AvgCostCents(),
			html.EscapeString(u.TopModel()),
		)
	}

	return fmt.Sprintf(`<div class="section">
            <div class="section-header">Top Spenders</div>
            <div class="section-content">
                <table>
                    <tr><th class="num">#</th><th>User</th><th class="num">Spend</th><th class="num">Requests</th><th class="num">Avg/Req</th><th>Top Model</th></tr>
                    %s
                </table>
            </div>
        </div>`, rows.String())
}

func modelStatsSection(m *billing.Metrics) string {
	models := m.TopModels(len(m.Models))
	if len(models) == 0 {
		return emptySection("Model Breakdown", "No billed models in the analyzed months.")
	}

	var rows strings.Builder
	for _, s := range models {
		fmt.Fprintf(&rows, `<tr>
                    <td>%s</td>
                    <td class="num">$%s</td>
                    <td class="num">%s</td>
                    <td class="num">%.1f&cent;</td>
                    <td class="num">%s</td>
                    <td class="num">%d</td>
                </tr>`,
			html.EscapeString(s.Model),
			formatDollars(s.TotalCostDollars()),
			formatCount(s.TotalRequests),
			s.AvgCostCents(),
			formatCount(s.TotalTokens()),
			len(s.UniqueUsers),
		)
	}

	return fmt.Sprintf(`<div class="section">
            <div class="section-header">Model Breakdown</div>
            <div class="section-content">
                <table>
                    <tr><th>Model</th><th class="num">Spend</th><th class="num">Requests</th><th class="num">Avg/Req</th><th class="num">Tokens</th><th class="num">Users</th></tr>
                    %s
                </table>
            </div>
        </div>`, rows.String())
}

func modelUsersSection(m *billing.Metrics, topCount int) string {
	models := m.TopModels(len(m.Models))
	if len(models) == 0 {
		return ""
	}

	var sections strings.Builder
	for _, s := range models {
		spends := m.UsersForModel(s.Model, topCount)
		if len(spends) == 0 {
			continue
		}
		var rows strings.Builder
		for _, spend := range spends {
			fmt.Fprintf(&rows, `<tr>
                    <td>%s</td>
                    <td class="num">$%s</td>
                    <td class="num">%s</td>
                </tr>`,
				html.EscapeString(spend.Email),
				formatDollars(spend.CostCents/100),
				formatCount(spend.Requests),
			)
		}
		fmt.Fprintf(&sections, `<div class="section">
            <div class="section-header">Who Uses %s</div>
            <div class="section-content">
                <table>
                    <tr><th>User</th><th class="num">Spend</th><th class="num">Requests</th></tr>
                    %s
                </table>
            </div>
        </div>`, html.EscapeString(s.Model), rows.String())
	}
	return sections.String()
}

func emptySection(title, note string) string {
	return fmt.Sprintf(`<div class="section">
            <div class="section-header">%s</div>
            <div class="section-content"><p class="empty-note">%s</p></div>
        </div>`, title, note)
}

// formatDollars renders a dollar amount with thousands separators and
// two decimal places.
func formatDollars(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	return groupThousands(s[:dot]) + s[dot:]
}

// formatCount renders an integer with thousands separators.
func formatCount(n int64) string {
	return groupThousands(fmt.Sprintf("%d", n))
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	if len(digits) <= 3 {
		if neg {
			return "-" + digits
		}
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
