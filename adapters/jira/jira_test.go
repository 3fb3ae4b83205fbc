package jira_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	clockadapter "github.com/artpar/teamlens/adapters/clock"
	"github.com/artpar/teamlens/adapters/jira"
	"github.com/rs/zerolog"
)

var windowPattern = regexp.MustCompile(`"(\d{4}-\d{2}-\d{2})"`)

func newTestClient(t *testing.T, url string) *jira.Client {
	t.Helper()
	c, err := jira.NewClient(jira.Config{
		BaseURL:  url,
		Email:    "bot@corp.com",
		APIToken: "tok_test",
		Clock:    clockadapter.NewFake(time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)),
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func issueDoc(key, issueType string, histories []map[string]any) map[string]any {
	return map[string]any{
		"key": key,
		"fields": map[string]any{
			"summary":   "summary of " + key,
			"created":   "2026-03-01T09:00:00.000+0000",
			"issuetype": map[string]any{"name": issueType},
		},
		"changelog": map[string]any{"histories": histories},
	}
}

func statusChange(at, to string) map[string]any {
	return map[string]any{
		"created": at,
		"items": []map[string]any{
			{"field": "status", "toString": to},
		},
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := jira.NewClient(jira.Config{Email: "a@b.c", APIToken: "t", Clock: clockadapter.Real{}}); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := jira.NewClient(jira.Config{BaseURL: "https://corp.atlassian.net", Clock: clockadapter.Real{}}); err == nil {
		t.Error("expected error for missing credentials")
	}
}

func TestFetchIssues_MonthlyChunksAndChangelog(t *testing.T) {
	var windows [][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bot@corp.com" || pass != "tok_test" {
			t.Errorf("basic auth = (%q, %q, %v)", user, pass, ok)
		}
		if r.URL.Path != "/rest/api/3/search/jql" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("expand"); got != "changelog" {
			t.Errorf("expand = %q, want changelog", got)
		}

		jql := r.URL.Query().Get("jql")
		dates := windowPattern.FindAllStringSubmatch(jql, -1)
		if len(dates) != 2 {
			t.Fatalf("jql has %d dates: %q", len(dates), jql)
		}
		window := []string{dates[0][1], dates[1][1]}
		windows = append(windows, window)

		var issues []map[string]any
		switch window[0] {
		case "2026-02-15":
			issues = []map[string]any{
				issueDoc("OA-2", "Story", []map[string]any{
					statusChange("2026-03-02T09:00:00.000+0000", "In Progress"),
					statusChange("2026-03-03T09:00:00.000+0000", "In Progress"), // latest wins
					statusChange("2026-03-05T09:00:00.000+0000", "Done"),
					{"created": "2026-03-06T09:00:00.000+0000", "items": []map[string]any{
						{"field": "assignee", "toString": "someone"},
					}},
				}),
				issueDoc("OA-1", "Bug", nil),
			}
		case "2026-01-15":
			issues = []map[string]any{
				issueDoc("OA-1", "Bug", nil), // boundary duplicate
				issueDoc("OA-0", "Story", []map[string]any{
					statusChange("2026-02-01T09:00:00.000+0000", "In Progress"),
				}),
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"issues": issues})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	issues, err := c.FetchIssues(context.Background(), "OA", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(windows) != 2 {
		t.Fatalf("made %d search requests, want 2", len(windows))
	}
	if windows[0][0] != "2026-02-15" || windows[0][1] != "2026-03-15" {
		t.Errorf("first window = %v", windows[0])
	}
	if windows[1][0] != "2026-01-15" || windows[1][1] != "2026-02-15" {
		t.Errorf("second window = %v", windows[1])
	}

	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3 (boundary duplicate dropped)", len(issues))
	}

	byKey := make(map[string]int)
	for i, issue := range issues {
		byKey[issue.Key] = i
	}
	done := issues[byKey["OA-2"]]
	if done.Type != "Story" {
		t.Errorf("OA-2 type = %q", done.Type)
	}
	if !done.Completed() {
		t.Fatal("OA-2 should carry both workflow timestamps")
	}
	// The later of the two In Progress transitions sticks.
	wantInProgress := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	if !done.InProgressAt.Equal(wantInProgress) {
		t.Errorf("OA-2 InProgressAt = %v, want %v", done.InProgressAt, wantInProgress)
	}

	bug := issues[byKey["OA-1"]]
	if !bug.InProgressAt.IsZero() || !bug.DoneAt.IsZero() {
		t.Error("OA-1 has no status changes, timestamps should be zero")
	}

	if started := issues[byKey["OA-0"]]; !started.Started() {
		t.Error("OA-0 should be started but not completed")
	}
}

func TestFetchIssues_SubdividesCappedWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jql := r.URL.Query().Get("jql")
		dates := windowPattern.FindAllStringSubmatch(jql, -1)
		start, _ := time.Parse("2006-01-02", dates[0][1])
		end, _ := time.Parse("2006-01-02", dates[1][1])

		// The full month comes back capped; halves fit.
		if end.Sub(start) > 16*24*time.Hour {
			issues := make([]map[string]any, 100)
			for i := range issues {
				issues[i] = issueDoc("OA-capped", "Story", nil)
			}
			json.NewEncoder(w).Encode(map[string]any{"issues": issues})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"issues": []map[string]any{
			issueDoc("OA-"+dates[0][1], "Story", nil),
		}})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	issues, err := c.FetchIssues(context.Background(), "OA", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One issue per half window, none from the truncated full-month result.
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(issues))
	}
	for _, i := range issues {
		if i.Key == "OA-capped" {
			t.Errorf("truncated window result leaked through: %q", i.Key)
		}
	}
}

func TestFetchIssues_CustomStatusSets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"issues": []map[string]any{
			issueDoc("OA-1", "Story", []map[string]any{
				statusChange("2026-03-01T09:00:00.000+0000", "Doing"),
				statusChange("2026-03-04T09:00:00.000+0000", "Shipped"),
			}),
		}})
	}))
	defer server.Close()

	c, err := jira.NewClient(jira.Config{
		BaseURL:            server.URL,
		Email:              "bot@corp.com",
		APIToken:           "tok_test",
		InProgressStatuses: []string{"Doing"},
		DoneStatuses:       []string{"Shipped", "Released"},
		Clock:              clockadapter.NewFake(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)),
		Logger:             zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	issues, err := c.FetchIssues(context.Background(), "OA", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 1 || !issues[0].Completed() {
		t.Fatalf("issues = %+v, want one completed", issues)
	}
}

func TestFetchIssues_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.FetchIssues(context.Background(), "OA", 1)

	var apiErr *jira.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", apiErr.StatusCode)
	}
}
