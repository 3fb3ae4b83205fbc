package period_test

import (
	"testing"
	"time"

	"github.com/artpar/teamlens/domain/period"
)

func TestKey(t *testing.T) {
	tests := []struct {
		year  int
		month int
		want  string
	}{
		{2025, 1, "01-2025"},
		{2025, 12, "12-2025"},
		{2026, 9, "09-2026"},
	}

	for _, tt := range tests {
		if got := period.Of(tt.year, tt.month).Key(); got != tt.want {
			t.Errorf("Of(%d, %d).Key() = %q, want %q", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := period.Of(2026, 1).Label(); got != "January 2026" {
		t.Errorf("Label() = %q, want %q", got, "January 2026")
	}
}

func TestNext_YearRollover(t *testing.T) {
	got := period.Of(2025, 12).Next()
	if got != period.Of(2026, 1) {
		t.Errorf("Next() = %v, want 01-2026", got)
	}
}

func TestEpochRange(t *testing.T) {
	start, end := period.Of(2025, 12).EpochRange()

	wantStart := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	wantEnd := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

	if start != wantStart {
		t.Errorf("start = %d, want %d", start, wantStart)
	}
	if end != wantEnd {
		t.Errorf("end = %d, want %d", end, wantEnd)
	}
}

func TestEpochRange_HalfOpen(t *testing.T) {
	// End of one month must equal start of the next - no gap, no overlap.
	_, janEnd := period.Of(2026, 1).EpochRange()
	febStart, _ := period.Of(2026, 2).EpochRange()

	if janEnd != febStart {
		t.Errorf("january end %d != february start %d", janEnd, febStart)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		key     string
		want    period.Period
		wantErr bool
	}{
		{"01-2025", period.Of(2025, 1), false},
		{"12-2026", period.Of(2026, 12), false},
		{"13-2025", period.Period{}, true},
		{"00-2025", period.Period{}, true},
		{"garbage", period.Period{}, true},
		{"", period.Period{}, true},
	}

	for _, tt := range tests {
		got, err := period.ParseKey(tt.key)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseKey(%q) expected error", tt.key)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKey(%q) unexpected error: %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestParseFilename(t *testing.T) {
	got, err := period.ParseFilename("12-2025-team-usage-events.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != period.Of(2025, 12) {
		t.Errorf("ParseFilename = %v, want 12-2025", got)
	}

	if _, err := period.ParseFilename("notes.txt"); err == nil {
		t.Error("expected error for filename without period prefix")
	}
}

func TestMonthsBack(t *testing.T) {
	now := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		n    int
		want []period.Period
	}{
		{1, []period.Period{period.Of(2026, 2)}},
		{2, []period.Period{period.Of(2026, 1), period.Of(2026, 2)}},
		{4, []period.Period{
			period.Of(2025, 11), period.Of(2025, 12),
			period.Of(2026, 1), period.Of(2026, 2),
		}},
		{0, nil},
	}

	for _, tt := range tests {
		got := period.MonthsBack(now, tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("MonthsBack(%d) returned %d periods, want %d", tt.n, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("MonthsBack(%d)[%d] = %v, want %v", tt.n, i, got[i], tt.want[i])
			}
		}
	}
}

func TestBefore(t *testing.T) {
	if !period.Of(2025, 12).Before(period.Of(2026, 1)) {
		t.Error("12-2025 should be before 01-2026")
	}
	if period.Of(2026, 2).Before(period.Of(2026, 2)) {
		t.Error("period should not be before itself")
	}
}
