// Package bootstrap assembles the application from configuration:
// adapters, services, dashboard handler, and the HTTP server.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clockadapter "github.com/artpar/teamlens/adapters/clock"
	"github.com/artpar/teamlens/adapters/csvusage"
	"github.com/artpar/teamlens/adapters/cursor"
	"github.com/artpar/teamlens/adapters/filecache"
	"github.com/artpar/teamlens/adapters/github"
	"github.com/artpar/teamlens/adapters/idgen"
	"github.com/artpar/teamlens/adapters/jira"
	"github.com/artpar/teamlens/adapters/metrics"
	"github.com/artpar/teamlens/app"
	"github.com/artpar/teamlens/config"
	"github.com/artpar/teamlens/domain/adoption"
	"github.com/artpar/teamlens/domain/delivery"
	"github.com/artpar/teamlens/web"
	"github.com/rs/zerolog"
)

// App is the assembled application.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Metrics  *metrics.Collector
	Billing  *app.BillingService
	Adoption *app.AdoptionService
	Delivery *app.DeliveryService // nil unless delivery is configured
	Web      *web.Handler

	HTTPServer *http.Server
	holder     *config.Holder
}

// New assembles the application from configuration. The Cursor API key
// is resolved from the environment before anything touches the network.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	apiKey, err := config.APIKey()
	if err != nil {
		return nil, err
	}

	collector := metrics.New()
	clk := clockadapter.Real{}

	client, err := cursor.NewClient(cursor.Config{
		BaseURL:      cfg.API.BaseURL,
		APIKey:       apiKey,
		Timeout:      cfg.API.Timeout,
		PageSize:     cfg.API.PageSize,
		RequestDelay: cfg.API.RequestDelay,
		MaxRetries:   cfg.API.MaxRetries,
		RetryBase:    cfg.API.RetryBase,
		Logger:       logger.With().Str("component", "cursor").Logger(),
		Metrics:      collector,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	cache := filecache.New(cfg.Paths.DataDir, clk)
	exports := csvusage.New(cfg.Paths.DataDir, logger.With().Str("component", "csvusage").Logger())

	billingSvc := app.NewBillingService(app.BillingServiceConfig{
		Source:     client,
		Cache:      cache,
		Clock:      clk,
		IDs:        idgen.UUID{},
		Metrics:    collector,
		Logger:     logger.With().Str("component", "billing").Logger(),
		MonthsBack: cfg.Billing.MonthsBack,
	})

	params := adoption.DefaultParams(cfg.ReferenceDate(clk.Now()))
	params.Thresholds = cfg.Analysis.Thresholds
	params.MinRequests = float64(cfg.Analysis.MinRequests)
	params.TopUsersCount = cfg.Analysis.TopUsers

	adoptionSvc := app.NewAdoptionService(app.AdoptionServiceConfig{
		Roster:  client,
		Rows:    exports,
		Clock:   clk,
		Metrics: collector,
		Logger:  logger.With().Str("component", "adoption").Logger(),
		Params:  params,
	})

	deliverySvc, err := newDeliveryService(cfg, clk, collector, logger)
	if err != nil {
		return nil, err
	}

	handler := web.NewHandler(web.Deps{
		Billing:     billingSvc,
		Adoption:    adoptionSvc,
		Delivery:    deliverySvc,
		Clock:       clk,
		Metrics:     collector,
		Logger:      logger.With().Str("component", "web").Logger(),
		OutputDir:   cfg.Paths.OutputDir,
		DataDir:     cfg.Paths.DataDir,
		TopSpenders: cfg.Billing.TopSpenders,
		MetricsPath: cfg.Metrics.Path,
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  collector,
		Billing:  billingSvc,
		Adoption: adoptionSvc,
		Delivery: deliverySvc,
		Web:      handler,
	}, nil
}

// newDeliveryService assembles the delivery pipeline, or returns nil
// when the delivery section is not configured. Credentials are only
// required once the section is present.
func newDeliveryService(cfg *config.Config, clk clockadapter.Real, collector *metrics.Collector, logger zerolog.Logger) (*app.DeliveryService, error) {
	if !cfg.Delivery.Enabled() {
		logger.Debug().Msg("delivery analysis not configured, skipping")
		return nil, nil
	}

	ghToken, ghOrg, err := config.GitHubCredentials()
	if err != nil {
		return nil, err
	}
	jiraEmail, jiraToken, jiraURL, err := config.JiraCredentials()
	if err != nil {
		return nil, err
	}

	ghClient, err := github.NewClient(github.Config{
		Token:        ghToken,
		Organization: ghOrg,
		Timeout:      cfg.API.Timeout,
		Logger:       logger.With().Str("component", "github").Logger(),
		Metrics:      collector,
	})
	if err != nil {
		return nil, fmt.Errorf("create github client: %w", err)
	}

	jiraClient, err := jira.NewClient(jira.Config{
		BaseURL:            jiraURL,
		Email:              jiraEmail,
		APIToken:           jiraToken,
		Timeout:            cfg.API.Timeout,
		InProgressStatuses: cfg.Delivery.Statuses.InProgress,
		DoneStatuses:       cfg.Delivery.Statuses.Done,
		Clock:              clk,
		Logger:             logger.With().Str("component", "jira").Logger(),
		Metrics:            collector,
	})
	if err != nil {
		return nil, fmt.Errorf("create jira client: %w", err)
	}

	return app.NewDeliveryService(app.DeliveryServiceConfig{
		Pulls:        ghClient,
		Issues:       jiraClient,
		Clock:        clk,
		Metrics:      collector,
		Logger:       logger.With().Str("component", "delivery").Logger(),
		Repositories: cfg.Delivery.Repositories,
		ProjectKey:   cfg.Delivery.ProjectKey,
		MonthsBack:   cfg.Delivery.MonthsBack,
		Params:       delivery.Params{IssueTypes: cfg.Delivery.IssueTypes},
	}), nil
}

// NewWithHotReload assembles the application from a config file and
// keeps watching it, reloading on changes and SIGHUP.
func NewWithHotReload(path string) (*App, error) {
	holder, err := config.NewHolder(path, setupLogger(config.LoggingConfig{Level: "info", Format: "json"}))
	if err != nil {
		return nil, err
	}

	a, err := New(holder.Get())
	if err != nil {
		holder.Stop()
		return nil, err
	}
	a.holder = holder

	holder.OnChange(func(cfg *config.Config) {
		a.Logger.Info().Msg("configuration changed; restart to apply non-reloadable fields")
	})
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch unavailable")
	}
	holder.WatchSignals()

	return a, nil
}

// Run starts the dashboard server and blocks until shutdown. The
// dashboards are generated once at startup and regenerated whenever
// the data directory changes.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Web.GenerateAll(ctx); err != nil {
		// Serve whatever did generate; the watcher retries on data changes.
		a.Logger.Warn().Err(err).Msg("initial dashboard generation incomplete")
	}
	if err := a.Web.Watch(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("data directory watch unavailable")
	}

	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      a.Web.Router(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", addr).Msg("dashboard server listening")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	a.Web.Stop()
	if a.holder != nil {
		a.holder.Stop()
	}

	if a.HTTPServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
