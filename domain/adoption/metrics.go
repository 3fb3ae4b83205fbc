package adoption

import (
	"sort"
	"strings"
	"time"

	"github.com/artpar/teamlens/domain/period"
)

// Row is one interaction row from a monthly usage export.
type Row struct {
	Email    string
	Date     time.Time // zero when the export row had no parseable date
	Requests float64
	Period   period.Period
}

// MonthlyStats aggregates usage for one calendar month.
type MonthlyStats struct {
	Period            period.Period
	ActiveUsers       int
	TotalRequests     float64
	TotalInteractions int64
	UserRequests      map[string]float64
	UserInteractions  map[string]int64
}

// ActivityState classifies a user's recency explicitly. The original
// data used a negative day-count sentinel for "never used"; the tri-state
// keeps the comparator honest.
type ActivityState int

const (
	// ActivityRecent means the user was active within the threshold.
	ActivityRecent ActivityState = iota
	// ActivityInactive means the user has activity, all of it older
	// than the threshold.
	ActivityInactive
	// ActivityNever means the user has access but no usage row at all.
	ActivityNever
)

// InactiveUser describes a user with active access but no recent activity.
type InactiveUser struct {
	Email        string
	Name         string
	Role         string
	State        ActivityState
	LastActivity time.Time // zero when State is ActivityNever
	DaysInactive int       // meaningful only when State is ActivityInactive
}

// lessInactive orders inactive lists: known-inactive users first by
// descending days inactive, never-used users after all of them, ties by
// lowercase name.
func lessInactive(a, b InactiveUser) bool {
	if (a.State == ActivityNever) != (b.State == ActivityNever) {
		return b.State == ActivityNever
	}
	if a.State != ActivityNever && a.DaysInactive != b.DaysInactive {
		return a.DaysInactive > b.DaysInactive
	}
	return sortKey(a) < sortKey(b)
}

func sortKey(u InactiveUser) string {
	if u.Name != "" {
		return strings.ToLower(u.Name)
	}
	return strings.ToLower(u.Email)
}

// UserTotal is one leaderboard entry: a user and their all-time requests.
type UserTotal struct {
	Email    string
	Requests float64
}

// Metrics is the complete adoption picture handed to the renderer.
type Metrics struct {
	Roster        Roster
	Monthly       []MonthlyStats
	TopUsers      []UserTotal
	UserTotals    map[string]float64
	TotalRequests float64

	// CurrentMonthActiveUsers counts active users in the most recent
	// month present in the export data.
	CurrentMonthActiveUsers int

	// Inactive maps each configured threshold (days) to the users whose
	// last activity is absent or older than the threshold.
	Inactive  map[int][]InactiveUser
	NeverUsed []InactiveUser

	ReferenceDate time.Time
	Thresholds    []int
}

// AdoptionRate returns the percentage of active-access members who were
// active within the given threshold.
func (m *Metrics) AdoptionRate(thresholdDays int) float64 {
	if len(m.Roster.Active) == 0 {
		return 0
	}
	inactive := len(m.Inactive[thresholdDays])
	return float64(len(m.Roster.Active)-inactive) / float64(len(m.Roster.Active)) * 100
}

// Params configures an adoption calculation.
type Params struct {
	ReferenceDate time.Time
	Thresholds    []int   // inactivity thresholds in days
	MinRequests   float64 // minimum monthly requests to count as active
	TopUsersCount int
}

// DefaultParams returns the default calculation parameters.
func DefaultParams(referenceDate time.Time) Params {
	return Params{
		ReferenceDate: referenceDate,
		Thresholds:    []int{30, 60, 90},
		MinRequests:   1,
		TopUsersCount: 20,
	}
}

// Calculate cross-references the team roster with monthly usage rows and
// produces the full adoption metrics. Each call owns its maps end-to-end.
func Calculate(members []Member, rows []Row, p Params) *Metrics {
	if len(p.Thresholds) == 0 {
		p.Thresholds = []int{30, 60, 90}
	}
	if p.TopUsersCount <= 0 {
		p.TopUsersCount = 20
	}

	m := &Metrics{
		Roster:        SplitRoster(members),
		UserTotals:    make(map[string]float64),
		Inactive:      make(map[int][]InactiveUser, len(p.Thresholds)),
		ReferenceDate: p.ReferenceDate,
		Thresholds:    p.Thresholds,
	}

	monthly := make(map[period.Period]*MonthlyStats)
	lastActivity := make(map[string]time.Time)

	for _, row := range rows {
		email := strings.ToLower(strings.TrimSpace(row.Email))
		if email == "" {
			continue
		}

		stats := monthly[row.Period]
		if stats == nil {
			stats = &MonthlyStats{
				Period:           row.Period,
				UserRequests:     make(map[string]float64),
				UserInteractions: make(map[string]int64),
			}
			monthly[row.Period] = stats
		}

		stats.UserRequests[email] += row.Requests
		stats.UserInteractions[email]++
		stats.TotalRequests += row.Requests
		stats.TotalInteractions++

		m.UserTotals[email] += row.Requests
		m.TotalRequests += row.Requests

		if !row.Date.IsZero() && row.Date.After(lastActivity[email]) {
			lastActivity[email] = row.Date
		}
	}

	for _, stats := range monthly {
		for _, reqs := range stats.UserRequests {
			if reqs >= p.MinRequests {
				stats.ActiveUsers++
			}
		}
		m.Monthly = append(m.Monthly, *stats)
	}
	sort.Slice(m.Monthly, func(i, j int) bool {
		return m.Monthly[i].Period.Before(m.Monthly[j].Period)
	})
	if len(m.Monthly) > 0 {
		m.CurrentMonthActiveUsers = m.Monthly[len(m.Monthly)-1].ActiveUsers
	}

	for email, reqs := range m.UserTotals {
		m.TopUsers = append(m.TopUsers, UserTotal{Email: email, Requests: reqs})
	}
	sort.Slice(m.TopUsers, func(i, j int) bool {
		if m.TopUsers[i].Requests != m.TopUsers[j].Requests {
			return m.TopUsers[i].Requests > m.TopUsers[j].Requests
		}
		return m.TopUsers[i].Email < m.TopUsers[j].Email
	})
	if len(m.TopUsers) > p.TopUsersCount {
		m.TopUsers = m.TopUsers[:p.TopUsersCount]
	}

	for _, threshold := range p.Thresholds {
		m.Inactive[threshold] = findInactive(m.Roster.Active, lastActivity, p.ReferenceDate, threshold)
	}

	// Never-used is threshold-independent: access but not a single row.
	for _, member := range m.Roster.Active {
		email := strings.ToLower(member.Email)
		if _, used := m.UserTotals[email]; used {
			continue
		}
		m.NeverUsed = append(m.NeverUsed, InactiveUser{
			Email: email,
			Name:  member.Name,
			Role:  member.Role,
			State: ActivityNever,
		})
	}
	sort.SliceStable(m.NeverUsed, func(i, j int) bool {
		return sortKey(m.NeverUsed[i]) < sortKey(m.NeverUsed[j])
	})

	return m
}

func findInactive(active []Member, lastActivity map[string]time.Time, referenceDate time.Time, thresholdDays int) []InactiveUser {
	cutoff := referenceDate.AddDate(0, 0, -thresholdDays)

	var inactive []InactiveUser
	for _, member := range active {
		email := strings.ToLower(member.Email)
		last, ok := lastActivity[email]

		if ok && !last.Before(cutoff) {
			continue // active recently
		}

		u := InactiveUser{
			Email: email,
			Name:  member.Name,
			Role:  member.Role,
		}
		if ok {
			u.State = ActivityInactive
			u.LastActivity = last
			u.DaysInactive = int(referenceDate.Sub(last).Hours() / 24)
		} else {
			u.State = ActivityNever
		}
		inactive = append(inactive, u)
	}

	sort.SliceStable(inactive, func(i, j int) bool {
		return lessInactive(inactive[i], inactive[j])
	})
	return inactive
}
