// Package billing provides usage event types and cost aggregation.
// All functions are pure - no side effects.
package billing

// KindOnDemand marks events billed through on-demand (usage-based) pricing.
const KindOnDemand = "Usage-based"

// TokenUsage holds the token accounting attached to a usage event.
// TotalCents is the PRE-discount model inference cost.
type TokenUsage struct {
	TotalCents         float64 `json:"totalCents"`
	DiscountPercentOff float64 `json:"discountPercentOff,omitempty"`
	InputTokens        int64   `json:"inputTokens"`
	OutputTokens       int64   `json:"outputTokens"`
	CacheWriteTokens   int64   `json:"cacheWriteTokens"`
	CacheReadTokens    int64   `json:"cacheReadTokens"`
}

// TotalTokens returns the sum of all four token counters.
func (t TokenUsage) TotalTokens() int64 {
	return t.InputTokens + t.OutputTokens + t.CacheWriteTokens + t.CacheReadTokens
}

// UsageEvent represents a single usage event as returned by the Admin API
// (immutable value type). Events have no identity: the caller must avoid
// fetching a period twice to avoid duplicates.
type UsageEvent struct {
	UserEmail      string      `json:"userEmail"`
	Model          string      `json:"model"`
	Kind           string      `json:"kind"`
	IsChargeable   bool        `json:"isChargeable"`
	TokenUsage     *TokenUsage `json:"tokenUsage,omitempty"`
	CursorTokenFee float64     `json:"cursorTokenFee,omitempty"`
}

// IsOnDemand returns true if the event incurs on-demand billing.
// Only on-demand chargeable events are fetched, cached, and aggregated.
func (e UsageEvent) IsOnDemand() bool {
	return e.Kind == KindOnDemand && e.IsChargeable
}

// CostCents computes the charged amount for the event in cents.
//
// The discount applies only to the model inference cost; the platform
// token fee is added afterwards, undiscounted, to match dashboard totals.
// An event without token usage costs nothing.
func (e UsageEvent) CostCents() float64 {
	if e.TokenUsage == nil {
		return 0
	}

	cost := e.TokenUsage.TotalCents
	if d := e.TokenUsage.DiscountPercentOff; d != 0 {
		cost *= 1 - d/100
	}

	return cost + e.CursorTokenFee
}

// Tokens returns the event's token usage, zero-valued when absent.
func (e UsageEvent) Tokens() TokenUsage {
	if e.TokenUsage == nil {
		return TokenUsage{}
	}
	return *e.TokenUsage
}
