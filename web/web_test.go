package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	clockadapter "github.com/artpar/teamlens/adapters/clock"
	"github.com/artpar/teamlens/adapters/idgen"
	"github.com/artpar/teamlens/adapters/metrics"
	"github.com/artpar/teamlens/app"
	"github.com/artpar/teamlens/domain/adoption"
	"github.com/artpar/teamlens/domain/billing"
	"github.com/artpar/teamlens/domain/delivery"
	"github.com/artpar/teamlens/domain/period"
	"github.com/artpar/teamlens/ports"
	"github.com/artpar/teamlens/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type staticUsageSource struct {
	events map[string][]billing.UsageEvent
}

func (s *staticUsageSource) FetchMonthlyUsageEvents(_ context.Context, p period.Period) ([]billing.UsageEvent, error) {
	return s.events[p.Key()], nil
}

type memCache struct {
	saved map[string]ports.MonthCache
}

func (c *memCache) Exists(p period.Period) bool {
	_, ok := c.saved[p.Key()]
	return ok
}

func (c *memCache) Save(p period.Period, events []billing.UsageEvent) (string, error) {
	c.saved[p.Key()] = ports.MonthCache{Month: p.Key(), TotalEvents: len(events), Events: events}
	return p.Key() + ".json", nil
}

func (c *memCache) Load(p period.Period) (ports.MonthCache, bool, error) {
	mc, ok := c.saved[p.Key()]
	return mc, ok, nil
}

type staticRoster struct{ members []adoption.Member }

func (s *staticRoster) FetchTeamMembers(context.Context) ([]adoption.Member, error) {
	return s.members, nil
}

type staticRows struct{ rows []adoption.Row }

func (s *staticRows) Rows() ([]adoption.Row, error) { return s.rows, nil }

type staticPulls struct{ prs []delivery.PullRequest }

func (s *staticPulls) FetchPullRequests(context.Context, string, time.Time) ([]delivery.PullRequest, error) {
	return s.prs, nil
}

type staticIssues struct{ issues []delivery.Issue }

func (s *staticIssues) FetchIssues(context.Context, string, int) ([]delivery.Issue, error) {
	return s.issues, nil
}

func newTestHandler(t *testing.T, outputDir string) *web.Handler {
	t.Helper()
	clk := clockadapter.NewFake(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	coll := metrics.NewWith(prometheus.NewRegistry())

	billingSvc := app.NewBillingService(app.BillingServiceConfig{
		Source: &staticUsageSource{events: map[string][]billing.UsageEvent{
			"03-2026": {{
				UserEmail:    "alice@example.com",
				Model:        "gpt-4",
				Kind:         billing.KindOnDemand,
				IsChargeable: true,
				TokenUsage:   &billing.TokenUsage{TotalCents: 1000},
			}},
		}},
		Cache:      &memCache{saved: make(map[string]ports.MonthCache)},
		Clock:      clk,
		IDs:        idgen.NewSequential("run"),
		Metrics:    coll,
		Logger:     zerolog.Nop(),
		MonthsBack: 2,
	})

	adoptionSvc := app.NewAdoptionService(app.AdoptionServiceConfig{
		Roster: &staticRoster{members: []adoption.Member{
			{Name: "Alice", Email: "alice@example.com", Role: "member"},
		}},
		Rows: &staticRows{rows: []adoption.Row{
			{Email: "alice@example.com", Requests: 5, Period: period.Of(2026, 3),
				Date: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)},
		}},
		Clock:   clk,
		Metrics: coll,
		Logger:  zerolog.Nop(),
	})

	deliverySvc := app.NewDeliveryService(app.DeliveryServiceConfig{
		Pulls: &staticPulls{prs: []delivery.PullRequest{{
			Repository: "web-app",
			Title:      "OA-1: wire up login",
			Number:     7,
			CreatedAt:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			MergedAt:   time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		}}},
		Issues: &staticIssues{issues: []delivery.Issue{{
			Key:          "OA-1",
			Type:         "Story",
			Created:      time.Date(2026, time.February, 25, 0, 0, 0, 0, time.UTC),
			InProgressAt: time.Date(2026, time.February, 26, 0, 0, 0, 0, time.UTC),
			DoneAt:       time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		}}},
		Clock:        clk,
		Metrics:      coll,
		Logger:       zerolog.Nop(),
		Repositories: []string{"web-app"},
		ProjectKey:   "OA",
	})

	return web.NewHandler(web.Deps{
		Billing:   billingSvc,
		Adoption:  adoptionSvc,
		Delivery:  deliverySvc,
		Clock:     clk,
		Metrics:   coll,
		Logger:    zerolog.Nop(),
		OutputDir: outputDir,
		DataDir:   t.TempDir(),
	})
}

func TestHandler_ServesGeneratedDashboards(t *testing.T) {
	outputDir := t.TempDir()
	h := newTestHandler(t, outputDir)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	// Before generation the dashboards are unavailable.
	resp, err := http.Get(srv.URL + "/billing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("pre-generation status = %d, want 503", resp.StatusCode)
	}

	if err := h.GenerateAll(context.Background()); err != nil {
		t.Fatalf("GenerateAll() error: %v", err)
	}

	for _, path := range []string{"/", "/billing", "/adoption", "/delivery"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("GET %s Content-Type = %q", path, ct)
		}
	}

	// Dashboards are also written to the output directory.
	for _, name := range []string{web.BillingFilename, web.AdoptionFilename, web.DeliveryFilename} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}
}

func TestHandler_StampsDashboardsWithInjectedClock(t *testing.T) {
	outputDir := t.TempDir()
	h := newTestHandler(t, outputDir)

	if err := h.GenerateAll(context.Background()); err != nil {
		t.Fatalf("GenerateAll() error: %v", err)
	}

	want := "Generated on 2026-03-15 00:00:00"
	for _, name := range []string{web.BillingFilename, web.AdoptionFilename, web.DeliveryFilename} {
		data, err := os.ReadFile(filepath.Join(outputDir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s does not carry the clock timestamp %q", name, want)
		}
	}
}

func TestHandler_Health(t *testing.T) {
	h := newTestHandler(t, t.TempDir())
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, t.TempDir())
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", resp.StatusCode)
	}
}
