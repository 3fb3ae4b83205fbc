package billing

import (
	"sort"

	"github.com/artpar/teamlens/domain/period"
)

// ModelStats is the running aggregate for a single model across all
// analyzed periods. Counters are monotonically non-decreasing over a fold.
type ModelStats struct {
	Model            string
	TotalCostCents   float64
	TotalRequests    int64
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
	UniqueUsers      map[string]struct{}
}

// TotalTokens returns the sum of all four token counters.
func (s *ModelStats) TotalTokens() int64 {
	return s.InputTokens + s.OutputTokens + s.CacheWriteTokens + s.CacheReadTokens
}

// TotalCostDollars returns the total cost in dollars.
func (s *ModelStats) TotalCostDollars() float64 {
	return s.TotalCostCents / 100
}

// AvgCostCents returns the average cost per request in cents.
func (s *ModelStats) AvgCostCents() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return s.TotalCostCents / float64(s.TotalRequests)
}

// UserStats is the running aggregate for a single user across all
// analyzed periods, with a per-model breakdown.
type UserStats struct {
	Email          string
	TotalCostCents float64
	TotalRequests  int64
	ModelCosts     map[string]float64
	ModelRequests  map[string]int64
}

// TotalCostDollars returns the total cost in dollars.
func (s *UserStats) TotalCostDollars() float64 {
	return s.TotalCostCents / 100
}

// AvgCostCents returns the average cost per request in cents.
func (s *UserStats) AvgCostCents() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return s.TotalCostCents / float64(s.TotalRequests)
}

// TopModel returns the model with the highest recorded cost for this user.
// Cost ties resolve to the lexicographically smallest model name, so the
// result is deterministic regardless of map iteration order.
func (s *UserStats) TopModel() string {
	best := ""
	bestCost := 0.0
	for model, cost := range s.ModelCosts {
		if best == "" || cost > bestCost || (cost == bestCost && model < best) {
			best = model
			bestCost = cost
		}
	}
	if best == "" {
		return "N/A"
	}
	return best
}

// MonthlyBreakdown is the per-period aggregate: totals, per-model and
// per-user rollups, and the user-to-model cost cross table.
type MonthlyBreakdown struct {
	Period         period.Period
	TotalCostCents float64
	TotalRequests  int64
	ModelCosts     map[string]float64
	ModelRequests  map[string]int64
	ModelTokens    map[string]int64
	UserCosts      map[string]float64
	UserRequests   map[string]int64
	UserModelCosts map[string]map[string]float64
}

// TotalCostDollars returns the period total in dollars.
func (b *MonthlyBreakdown) TotalCostDollars() float64 {
	return b.TotalCostCents / 100
}

// Metrics is the terminal aggregate handed to the renderer.
//
// Invariant: the per-period, per-user, and per-model rollups all sum to
// TotalCostCents (and TotalRequests) - three independently computed views
// of the same event set must reconcile.
type Metrics struct {
	Breakdowns     []MonthlyBreakdown
	Users          map[string]*UserStats
	Models         map[string]*ModelStats
	TotalCostCents float64
	TotalRequests  int64
	MonthsAnalyzed int

	userOrder  []string
	modelOrder []string
}

// TotalCostDollars returns the grand total in dollars.
func (m *Metrics) TotalCostDollars() float64 {
	return m.TotalCostCents / 100
}

// TopUsers returns up to n users ranked by total cost descending.
// Ties keep first-seen order (stable sort over insertion order).
func (m *Metrics) TopUsers(n int) []*UserStats {
	ranked := make([]*UserStats, 0, len(m.userOrder))
	for _, email := range m.userOrder {
		ranked = append(ranked, m.Users[email])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalCostCents > ranked[j].TotalCostCents
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// TopModels returns up to n models ranked by total cost descending.
func (m *Metrics) TopModels(n int) []*ModelStats {
	ranked := make([]*ModelStats, 0, len(m.modelOrder))
	for _, model := range m.modelOrder {
		ranked = append(ranked, m.Models[model])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalCostCents > ranked[j].TotalCostCents
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// ModelUserSpend records one user's spend on one model.
type ModelUserSpend struct {
	Email     string
	CostCents float64
	Requests  int64
}

// UsersForModel returns up to n users who spent on the given model,
// ranked by spend descending, ties broken by first-seen order.
func (m *Metrics) UsersForModel(model string, n int) []ModelUserSpend {
	var spends []ModelUserSpend
	for _, email := range m.userOrder {
		u := m.Users[email]
		cost := u.ModelCosts[model]
		if cost <= 0 {
			continue
		}
		spends = append(spends, ModelUserSpend{
			Email:     email,
			CostCents: cost,
			Requests:  u.ModelRequests[model],
		})
	}
	sort.SliceStable(spends, func(i, j int) bool {
		return spends[i].CostCents > spends[j].CostCents
	})
	if n < len(spends) {
		spends = spends[:n]
	}
	return spends
}

// TopSpenderEmail returns the email of the highest-spending user, or "N/A".
func (m *Metrics) TopSpenderEmail() string {
	best := ""
	bestCost := 0.0
	for _, email := range m.userOrder {
		if u := m.Users[email]; best == "" || u.TotalCostCents > bestCost {
			best = email
			bestCost = u.TotalCostCents
		}
	}
	if best == "" {
		return "N/A"
	}
	return best
}

// TopCostModel returns the name of the most expensive model, or "N/A".
func (m *Metrics) TopCostModel() string {
	best := ""
	bestCost := 0.0
	for _, model := range m.modelOrder {
		if s := m.Models[model]; best == "" || s.TotalCostCents > bestCost {
			best = model
			bestCost = s.TotalCostCents
		}
	}
	if best == "" {
		return "N/A"
	}
	return best
}

// Accumulator folds usage events, one period at a time, into the three
// simultaneous rollups (per-period, per-user, per-model). Each Accumulator
// owns its maps end-to-end; there is no process-wide state.
type Accumulator struct {
	breakdowns []MonthlyBreakdown
	users      map[string]*UserStats
	models     map[string]*ModelStats
	userOrder  []string
	modelOrder []string
	totalCost  float64
	totalReqs  int64
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		users:  make(map[string]*UserStats),
		models: make(map[string]*ModelStats),
	}
}

// AddPeriod folds one period's events into the rollups and returns the
// period's breakdown. Events with computed cost <= 0 (free, fully
// discounted, or malformed) contribute to no counter at all.
func (a *Accumulator) AddPeriod(p period.Period, events []UsageEvent) MonthlyBreakdown {
	b := MonthlyBreakdown{
		Period:         p,
		ModelCosts:     make(map[string]float64),
		ModelRequests:  make(map[string]int64),
		ModelTokens:    make(map[string]int64),
		UserCosts:      make(map[string]float64),
		UserRequests:   make(map[string]int64),
		UserModelCosts: make(map[string]map[string]float64),
	}

	for _, e := range events {
		cost := e.CostCents()
		if cost <= 0 {
			continue
		}

		email := e.UserEmail
		if email == "" {
			email = "unknown"
		}
		model := e.Model
		if model == "" {
			model = "unknown"
		}
		tokens := e.Tokens()

		// Period rollup
		b.TotalCostCents += cost
		b.TotalRequests++
		b.ModelCosts[model] += cost
		b.ModelRequests[model]++
		b.ModelTokens[model] += tokens.TotalTokens()
		b.UserCosts[email] += cost
		b.UserRequests[email]++
		cross := b.UserModelCosts[email]
		if cross == nil {
			cross = make(map[string]float64)
			b.UserModelCosts[email] = cross
		}
		cross[model] += cost

		// Global user rollup
		u := a.users[email]
		if u == nil {
			u = &UserStats{
				Email:         email,
				ModelCosts:    make(map[string]float64),
				ModelRequests: make(map[string]int64),
			}
			a.users[email] = u
			a.userOrder = append(a.userOrder, email)
		}
		u.TotalCostCents += cost
		u.TotalRequests++
		u.ModelCosts[model] += cost
		u.ModelRequests[model]++

		// Global model rollup
		s := a.models[model]
		if s == nil {
			s = &ModelStats{
				Model:       model,
				UniqueUsers: make(map[string]struct{}),
			}
			a.models[model] = s
			a.modelOrder = append(a.modelOrder, model)
		}
		s.TotalCostCents += cost
		s.TotalRequests++
		s.InputTokens += tokens.InputTokens
		s.OutputTokens += tokens.OutputTokens
		s.CacheWriteTokens += tokens.CacheWriteTokens
		s.CacheReadTokens += tokens.CacheReadTokens
		s.UniqueUsers[email] = struct{}{}
	}

	a.breakdowns = append(a.breakdowns, b)
	a.totalCost += b.TotalCostCents
	a.totalReqs += b.TotalRequests
	return b
}

// Metrics returns the terminal aggregate. The accumulator must not be
// used after this call.
func (a *Accumulator) Metrics() *Metrics {
	return &Metrics{
		Breakdowns:     a.breakdowns,
		Users:          a.users,
		Models:         a.models,
		TotalCostCents: a.totalCost,
		TotalRequests:  a.totalReqs,
		MonthsAnalyzed: len(a.breakdowns),
		userOrder:      a.userOrder,
		modelOrder:     a.modelOrder,
	}
}
