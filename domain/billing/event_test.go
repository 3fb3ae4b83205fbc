package billing_test

import (
	"testing"

	"github.com/artpar/teamlens/domain/billing"
)

func TestCostCents(t *testing.T) {
	tests := []struct {
		name  string
		event billing.UsageEvent
		want  float64
	}{
		{
			name: "discount applies before fee",
			event: billing.UsageEvent{
				TokenUsage:     &billing.TokenUsage{TotalCents: 1000, DiscountPercentOff: 20},
				CursorTokenFee: 50,
			},
			want: 850, // 1000*0.8 + 50
		},
		{
			name: "no discount",
			event: billing.UsageEvent{
				TokenUsage: &billing.TokenUsage{TotalCents: 120},
			},
			want: 120,
		},
		{
			name: "fee without discount",
			event: billing.UsageEvent{
				TokenUsage:     &billing.TokenUsage{TotalCents: 100},
				CursorTokenFee: 25,
			},
			want: 125,
		},
		{
			name: "full discount leaves only the fee",
			event: billing.UsageEvent{
				TokenUsage:     &billing.TokenUsage{TotalCents: 400, DiscountPercentOff: 100},
				CursorTokenFee: 10,
			},
			want: 10,
		},
		{
			name:  "missing token usage costs nothing",
			event: billing.UsageEvent{CursorTokenFee: 50},
			want:  0,
		},
		{
			name:  "zero event",
			event: billing.UsageEvent{TokenUsage: &billing.TokenUsage{}},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.CostCents(); got != tt.want {
				t.Errorf("CostCents() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOnDemand(t *testing.T) {
	tests := []struct {
		kind       string
		chargeable bool
		want       bool
	}{
		{"Usage-based", true, true},
		{"Usage-based", false, false},
		{"Included", true, false},
		{"", false, false},
	}

	for _, tt := range tests {
		e := billing.UsageEvent{Kind: tt.kind, IsChargeable: tt.chargeable}
		if got := e.IsOnDemand(); got != tt.want {
			t.Errorf("IsOnDemand(%q, %v) = %v, want %v", tt.kind, tt.chargeable, got, tt.want)
		}
	}
}

func TestTokenUsage_TotalTokens(t *testing.T) {
	tu := billing.TokenUsage{
		InputTokens:      100,
		OutputTokens:     200,
		CacheWriteTokens: 30,
		CacheReadTokens:  4,
	}
	if got := tu.TotalTokens(); got != 334 {
		t.Errorf("TotalTokens() = %d, want 334", got)
	}
}

func TestTokens_NilUsage(t *testing.T) {
	e := billing.UsageEvent{}
	if got := e.Tokens(); got != (billing.TokenUsage{}) {
		t.Errorf("Tokens() = %+v, want zero value", got)
	}
}
