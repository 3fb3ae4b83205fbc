// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Billing  BillingConfig  `yaml:"billing"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Paths    PathsConfig    `yaml:"paths"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// APIConfig configures the Cursor Admin API client.
// The API key is never read from the config file; it comes from the
// CURSOR_API_KEY environment variable (or a .env file).
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	PageSize     int           `yaml:"page_size"`
	RequestDelay time.Duration `yaml:"request_delay"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBase    time.Duration `yaml:"retry_base"`
}

// BillingConfig configures the spend analysis.
type BillingConfig struct {
	MonthsBack  int `yaml:"months_back"`
	TopSpenders int `yaml:"top_spenders"`
}

// AnalysisConfig configures the adoption analysis.
type AnalysisConfig struct {
	ReferenceDate string `yaml:"reference_date"` // YYYY-MM-DD, empty = today
	Thresholds    []int  `yaml:"thresholds"`     // inactivity windows in days
	MinRequests   int    `yaml:"min_requests"`
	TopUsers      int    `yaml:"top_users"`
}

// DeliveryConfig configures the delivery analysis. The section is
// optional: the pipeline only runs when a project key and at least one
// repository are configured. Credentials never live in the config
// file; they come from GITHUB_TOKEN, GITHUB_ORG, ATLASSIAN_EMAIL,
// ATLASSIAN_API_TOKEN, and ATLASSIAN_BASE_URL (or a .env file).
type DeliveryConfig struct {
	ProjectKey   string   `yaml:"project_key"`
	Repositories []string `yaml:"repositories"`
	MonthsBack   int      `yaml:"months_back"`
	IssueTypes   []string `yaml:"issue_types"` // cycle time scope
	Statuses     struct {
		InProgress []string `yaml:"in_progress"`
		Done       []string `yaml:"done"`
	} `yaml:"statuses"`
}

// Enabled reports whether the delivery pipeline is configured.
func (d DeliveryConfig) Enabled() bool {
	return d.ProjectKey != "" && len(d.Repositories) > 0
}

// PathsConfig configures where data lives.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir"`   // cached events + CSV exports
	OutputDir string `yaml:"output_dir"` // generated dashboards
}

// ServerConfig configures the dashboard HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /metrics
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file; if the file does not exist
// the configuration is built from defaults and environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// APIKey returns the Cursor Admin API key from the environment.
// A .env file in the working directory is loaded first if present.
func APIKey() (string, error) {
	// Missing .env is fine; the variable may already be exported.
	_ = godotenv.Load()

	key := strings.TrimSpace(os.Getenv("CURSOR_API_KEY"))
	if key == "" {
		return "", fmt.Errorf("CURSOR_API_KEY is not set (export it or add it to .env)")
	}
	return key, nil
}

// GitHubCredentials returns the source-control token and organization
// from the environment. A .env file is loaded first if present.
func GitHubCredentials() (token, org string, err error) {
	_ = godotenv.Load()

	token = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	org = strings.TrimSpace(os.Getenv("GITHUB_ORG"))
	if token == "" || org == "" {
		return "", "", fmt.Errorf("GITHUB_TOKEN and GITHUB_ORG must be set (export them or add them to .env)")
	}
	return token, org, nil
}

// JiraCredentials returns the issue-tracker credentials and instance
// URL from the environment. A .env file is loaded first if present.
func JiraCredentials() (email, token, baseURL string, err error) {
	_ = godotenv.Load()

	email = strings.TrimSpace(os.Getenv("ATLASSIAN_EMAIL"))
	token = strings.TrimSpace(os.Getenv("ATLASSIAN_API_TOKEN"))
	baseURL = strings.TrimSpace(os.Getenv("ATLASSIAN_BASE_URL"))
	if email == "" || token == "" || baseURL == "" {
		return "", "", "", fmt.Errorf("ATLASSIAN_EMAIL, ATLASSIAN_API_TOKEN and ATLASSIAN_BASE_URL must be set (export them or add them to .env)")
	}
	return email, token, baseURL, nil
}

// applyEnvOverrides applies TEAMLENS_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TEAMLENS_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TEAMLENS_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}
	if v := os.Getenv("TEAMLENS_API_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.PageSize = n
		}
	}
	if v := os.Getenv("TEAMLENS_API_REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.RequestDelay = d
		}
	}

	if v := os.Getenv("TEAMLENS_BILLING_MONTHS_BACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Billing.MonthsBack = n
		}
	}

	if v := os.Getenv("TEAMLENS_ANALYSIS_REFERENCE_DATE"); v != "" {
		cfg.Analysis.ReferenceDate = v
	}
	if v := os.Getenv("TEAMLENS_ANALYSIS_MIN_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.MinRequests = n
		}
	}

	if v := os.Getenv("TEAMLENS_DATA_DIR"); v != "" {
		cfg.Paths.DataDir = v
	}
	if v := os.Getenv("TEAMLENS_OUTPUT_DIR"); v != "" {
		cfg.Paths.OutputDir = v
	}

	if v := os.Getenv("TEAMLENS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TEAMLENS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("TEAMLENS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TEAMLENS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("TEAMLENS_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("TEAMLENS_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.cursor.com"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.PageSize == 0 {
		cfg.API.PageSize = 100
	}
	if cfg.API.RequestDelay == 0 {
		cfg.API.RequestDelay = 3 * time.Second
	}
	if cfg.API.MaxRetries == 0 {
		cfg.API.MaxRetries = 5
	}
	if cfg.API.RetryBase == 0 {
		cfg.API.RetryBase = time.Second
	}

	if cfg.Billing.MonthsBack == 0 {
		cfg.Billing.MonthsBack = 4
	}
	if cfg.Billing.TopSpenders == 0 {
		cfg.Billing.TopSpenders = 10
	}

	if len(cfg.Analysis.Thresholds) == 0 {
		cfg.Analysis.Thresholds = []int{30, 60, 90}
	}
	if cfg.Analysis.MinRequests == 0 {
		cfg.Analysis.MinRequests = 1
	}
	if cfg.Analysis.TopUsers == 0 {
		cfg.Analysis.TopUsers = 20
	}

	if cfg.Delivery.MonthsBack == 0 {
		cfg.Delivery.MonthsBack = 12
	}

	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = "data"
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = "."
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Billing.MonthsBack < 1 {
		return fmt.Errorf("billing.months_back must be at least 1, got %d", cfg.Billing.MonthsBack)
	}
	if cfg.API.PageSize < 1 {
		return fmt.Errorf("api.page_size must be at least 1, got %d", cfg.API.PageSize)
	}
	if cfg.Analysis.ReferenceDate != "" {
		if _, err := time.Parse("2006-01-02", cfg.Analysis.ReferenceDate); err != nil {
			return fmt.Errorf("analysis.reference_date must be YYYY-MM-DD, got %q", cfg.Analysis.ReferenceDate)
		}
	}
	for _, th := range cfg.Analysis.Thresholds {
		if th < 1 {
			return fmt.Errorf("analysis.thresholds must be positive, got %d", th)
		}
	}
	if cfg.Delivery.MonthsBack < 1 {
		return fmt.Errorf("delivery.months_back must be at least 1, got %d", cfg.Delivery.MonthsBack)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}

// ReferenceDate resolves the configured analysis reference date,
// falling back to now when unset.
func (c *Config) ReferenceDate(now time.Time) time.Time {
	if c.Analysis.ReferenceDate == "" {
		return now
	}
	t, err := time.Parse("2006-01-02", c.Analysis.ReferenceDate)
	if err != nil {
		return now
	}
	return t
}
