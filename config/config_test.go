package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/teamlens/config"
)

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teamlens.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
api:
  base_url: "http://localhost:3000"
  timeout: 15s
  page_size: 50
  request_delay: 500ms

billing:
  months_back: 6
  top_spenders: 5

analysis:
  reference_date: "2026-02-15"
  thresholds: [14, 45]
  min_requests: 3

paths:
  data_dir: "/tmp/data"
  output_dir: "/tmp/out"
`

	cfg := writeAndLoad(t, content)

	if cfg.API.BaseURL != "http://localhost:3000" {
		t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("API.Timeout = %v, want 15s", cfg.API.Timeout)
	}
	if cfg.API.PageSize != 50 {
		t.Errorf("API.PageSize = %d, want 50", cfg.API.PageSize)
	}
	if cfg.API.RequestDelay != 500*time.Millisecond {
		t.Errorf("API.RequestDelay = %v, want 500ms", cfg.API.RequestDelay)
	}
	if cfg.Billing.MonthsBack != 6 {
		t.Errorf("Billing.MonthsBack = %d, want 6", cfg.Billing.MonthsBack)
	}
	if cfg.Billing.TopSpenders != 5 {
		t.Errorf("Billing.TopSpenders = %d, want 5", cfg.Billing.TopSpenders)
	}
	if len(cfg.Analysis.Thresholds) != 2 || cfg.Analysis.Thresholds[0] != 14 {
		t.Errorf("Analysis.Thresholds = %v, want [14 45]", cfg.Analysis.Thresholds)
	}
	if cfg.Analysis.MinRequests != 3 {
		t.Errorf("Analysis.MinRequests = %d, want 3", cfg.Analysis.MinRequests)
	}
	if cfg.Paths.DataDir != "/tmp/data" {
		t.Errorf("Paths.DataDir = %s", cfg.Paths.DataDir)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")

	if cfg.API.BaseURL != "https://api.cursor.com" {
		t.Errorf("default API.BaseURL = %s", cfg.API.BaseURL)
	}
	if cfg.API.PageSize != 100 {
		t.Errorf("default API.PageSize = %d, want 100", cfg.API.PageSize)
	}
	if cfg.API.RequestDelay != 3*time.Second {
		t.Errorf("default API.RequestDelay = %v, want 3s", cfg.API.RequestDelay)
	}
	if cfg.API.MaxRetries != 5 {
		t.Errorf("default API.MaxRetries = %d, want 5", cfg.API.MaxRetries)
	}
	if cfg.Billing.MonthsBack != 4 {
		t.Errorf("default Billing.MonthsBack = %d, want 4", cfg.Billing.MonthsBack)
	}
	want := []int{30, 60, 90}
	if len(cfg.Analysis.Thresholds) != 3 {
		t.Fatalf("default Analysis.Thresholds = %v, want %v", cfg.Analysis.Thresholds, want)
	}
	for i, th := range want {
		if cfg.Analysis.Thresholds[i] != th {
			t.Errorf("Thresholds[%d] = %d, want %d", i, cfg.Analysis.Thresholds[i], th)
		}
	}
	if cfg.Paths.DataDir != "data" {
		t.Errorf("default Paths.DataDir = %s, want data", cfg.Paths.DataDir)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics.Path = %s", cfg.Metrics.Path)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative months back", "billing:\n  months_back: -2\n"},
		{"bad reference date", "analysis:\n  reference_date: \"02/15/2026\"\n"},
		{"zero threshold", "analysis:\n  thresholds: [0]\n"},
		{"bad log level", "logging:\n  level: \"verbose\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "teamlens.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := config.Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TEAMLENS_API_BASE_URL", "http://override:9999")
	t.Setenv("TEAMLENS_BILLING_MONTHS_BACK", "2")
	t.Setenv("TEAMLENS_LOG_LEVEL", "debug")

	cfg := writeAndLoad(t, "api:\n  base_url: \"http://file:1\"\n")

	if cfg.API.BaseURL != "http://override:9999" {
		t.Errorf("API.BaseURL = %s, want env override", cfg.API.BaseURL)
	}
	if cfg.Billing.MonthsBack != 2 {
		t.Errorf("Billing.MonthsBack = %d, want 2", cfg.Billing.MonthsBack)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithFallback_MissingFile(t *testing.T) {
	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback() error: %v", err)
	}
	if cfg.API.BaseURL != "https://api.cursor.com" {
		t.Errorf("API.BaseURL = %s, want default", cfg.API.BaseURL)
	}
}

func TestReferenceDate(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	cfg := writeAndLoad(t, "{}\n")
	if got := cfg.ReferenceDate(now); !got.Equal(now) {
		t.Errorf("unset reference date = %v, want now", got)
	}

	cfg = writeAndLoad(t, "analysis:\n  reference_date: \"2026-01-31\"\n")
	want := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	if got := cfg.ReferenceDate(now); !got.Equal(want) {
		t.Errorf("reference date = %v, want %v", got, want)
	}
}

func TestLoad_DeliverySection(t *testing.T) {
	content := `
delivery:
  project_key: "OA"
  repositories: ["account-api", "account-web"]
  months_back: 6
  issue_types: ["Story", "Task"]
  statuses:
    in_progress: ["In Progress", "Doing"]
    done: ["Done", "Released"]
`
	cfg := writeAndLoad(t, content)

	if !cfg.Delivery.Enabled() {
		t.Fatal("delivery should be enabled")
	}
	if cfg.Delivery.ProjectKey != "OA" {
		t.Errorf("ProjectKey = %q", cfg.Delivery.ProjectKey)
	}
	if len(cfg.Delivery.Repositories) != 2 {
		t.Errorf("Repositories = %v", cfg.Delivery.Repositories)
	}
	if cfg.Delivery.MonthsBack != 6 {
		t.Errorf("MonthsBack = %d, want 6", cfg.Delivery.MonthsBack)
	}
	if len(cfg.Delivery.Statuses.Done) != 2 || cfg.Delivery.Statuses.Done[1] != "Released" {
		t.Errorf("Statuses.Done = %v", cfg.Delivery.Statuses.Done)
	}
}

func TestLoad_DeliveryDisabledByDefault(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")
	if cfg.Delivery.Enabled() {
		t.Error("delivery should be disabled without project key and repositories")
	}
	if cfg.Delivery.MonthsBack != 12 {
		t.Errorf("default Delivery.MonthsBack = %d, want 12", cfg.Delivery.MonthsBack)
	}
}

func TestGitHubCredentials(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_ORG", "")
	if _, _, err := config.GitHubCredentials(); err == nil {
		t.Error("expected error when GitHub credentials are unset")
	}

	t.Setenv("GITHUB_TOKEN", "tok_test")
	t.Setenv("GITHUB_ORG", "corp")
	token, org, err := config.GitHubCredentials()
	if err != nil {
		t.Fatalf("GitHubCredentials() error: %v", err)
	}
	if token != "tok_test" || org != "corp" {
		t.Errorf("credentials = (%q, %q)", token, org)
	}
}

func TestJiraCredentials(t *testing.T) {
	t.Setenv("ATLASSIAN_EMAIL", "bot@corp.com")
	t.Setenv("ATLASSIAN_API_TOKEN", "")
	t.Setenv("ATLASSIAN_BASE_URL", "https://corp.atlassian.net")
	if _, _, _, err := config.JiraCredentials(); err == nil {
		t.Error("expected error when API token is unset")
	}

	t.Setenv("ATLASSIAN_API_TOKEN", "tok_test")
	email, token, baseURL, err := config.JiraCredentials()
	if err != nil {
		t.Fatalf("JiraCredentials() error: %v", err)
	}
	if email != "bot@corp.com" || token != "tok_test" || baseURL != "https://corp.atlassian.net" {
		t.Errorf("credentials = (%q, %q, %q)", email, token, baseURL)
	}
}

func TestAPIKey_Missing(t *testing.T) {
	t.Setenv("CURSOR_API_KEY", "")
	if _, err := config.APIKey(); err == nil {
		t.Error("expected error when CURSOR_API_KEY is unset")
	}
}

func TestAPIKey_FromEnv(t *testing.T) {
	t.Setenv("CURSOR_API_KEY", "key_test123")
	key, err := config.APIKey()
	if err != nil {
		t.Fatalf("APIKey() error: %v", err)
	}
	if key != "key_test123" {
		t.Errorf("key = %q", key)
	}
}
