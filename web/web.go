// Package web renders the static HTML dashboards and serves them.
// Render functions are pure: metrics in, complete HTML document out.
// The Handler keeps the latest rendered dashboards in memory and
// regenerates them when the underlying data directory changes.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	clockadapter "github.com/artpar/teamlens/adapters/clock"
	"github.com/artpar/teamlens/adapters/metrics"
	"github.com/artpar/teamlens/app"
	"github.com/artpar/teamlens/ports"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// BillingFilename is the billing dashboard output file.
const BillingFilename = "billing_dashboard.html"

// AdoptionFilename is the adoption dashboard output file.
const AdoptionFilename = "adoption_dashboard.html"

// DeliveryFilename is the delivery metrics dashboard output file.
const DeliveryFilename = "delivery_dashboard.html"

// Handler serves the generated dashboards and regenerates them on demand.
type Handler struct {
	billing  *app.BillingService
	adoption *app.AdoptionService
	delivery *app.DeliveryService
	clock    ports.Clock
	metrics  *metrics.Collector
	logger   zerolog.Logger

	outputDir   string
	dataDir     string
	topSpenders int
	metricsPath string

	mu           sync.RWMutex
	billingHTML  string
	adoptionHTML string
	deliveryHTML string

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// Deps contains dependencies for the dashboard handler.
type Deps struct {
	Billing     *app.BillingService
	Adoption    *app.AdoptionService
	Delivery    *app.DeliveryService
	Clock       ports.Clock
	Metrics     *metrics.Collector
	Logger      zerolog.Logger
	OutputDir   string
	DataDir     string
	TopSpenders int
	MetricsPath string
}

// NewHandler creates a dashboard handler.
func NewHandler(deps Deps) *Handler {
	if deps.TopSpenders < 1 {
		deps.TopSpenders = 10
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = "/metrics"
	}
	if deps.Clock == nil {
		deps.Clock = clockadapter.Real{}
	}
	return &Handler{
		billing:     deps.Billing,
		adoption:    deps.Adoption,
		delivery:    deps.Delivery,
		clock:       deps.Clock,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		outputDir:   deps.OutputDir,
		dataDir:     deps.DataDir,
		topSpenders: deps.TopSpenders,
		metricsPath: deps.MetricsPath,
		stopCh:      make(chan struct{}),
	}
}

// Router returns the dashboard router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.BillingPage)
	r.Get("/billing", h.BillingPage)
	r.Get("/adoption", h.AdoptionPage)
	r.Get("/delivery", h.DeliveryPage)
	r.Get("/healthz", h.Health)
	r.Handle(h.metricsPath, promhttp.Handler())

	return r
}

// BillingPage serves the billing dashboard.
func (h *Handler) BillingPage(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	html := h.billingHTML
	h.mu.RUnlock()
	h.servePage(w, html)
}

// AdoptionPage serves the adoption dashboard.
func (h *Handler) AdoptionPage(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	html := h.adoptionHTML
	h.mu.RUnlock()
	h.servePage(w, html)
}

// DeliveryPage serves the delivery metrics dashboard.
func (h *Handler) DeliveryPage(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	html := h.deliveryHTML
	h.mu.RUnlock()
	h.servePage(w, html)
}

func (h *Handler) servePage(w http.ResponseWriter, html string) {
	if html == "" {
		http.Error(w, "dashboard not generated yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// GenerateAll runs both analysis pipelines, renders the dashboards,
// keeps them in memory for serving, and writes them to the output
// directory. A failure in one pipeline does not block the other.
func (h *Handler) GenerateAll(ctx context.Context) error {
	var firstErr error
	if h.billing != nil {
		if err := h.GenerateBilling(ctx); err != nil {
			firstErr = err
		}
	}
	if h.adoption != nil {
		if err := h.GenerateAdoption(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if h.delivery != nil {
		if err := h.GenerateDelivery(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GenerateBilling runs the spend pipeline and publishes its dashboard.
func (h *Handler) GenerateBilling(ctx context.Context) error {
	m, err := h.billing.Collect(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("billing generation failed")
		return err
	}
	html := RenderBillingDashboard(m, h.topSpenders, h.clock.Now())
	h.mu.Lock()
	h.billingHTML = html
	h.mu.Unlock()
	return h.writeDashboard(BillingFilename, html)
}

// GenerateAdoption runs the adoption pipeline and publishes its dashboard.
func (h *Handler) GenerateAdoption(ctx context.Context) error {
	m, err := h.adoption.Collect(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("adoption generation failed")
		return err
	}
	html := RenderAdoptionDashboard(m, h.clock.Now())
	h.mu.Lock()
	h.adoptionHTML = html
	h.mu.Unlock()
	return h.writeDashboard(AdoptionFilename, html)
}

// GenerateDelivery runs the delivery pipeline and publishes its dashboard.
func (h *Handler) GenerateDelivery(ctx context.Context) error {
	if h.delivery == nil {
		return errors.New("delivery pipeline is not configured")
	}
	m, err := h.delivery.Collect(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("delivery generation failed")
		return err
	}
	html := RenderDeliveryDashboard(m, h.clock.Now())
	h.mu.Lock()
	h.deliveryHTML = html
	h.mu.Unlock()
	return h.writeDashboard(DeliveryFilename, html)
}

func (h *Handler) writeDashboard(name, html string) error {
	if h.outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(h.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(h.outputDir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	h.metrics.ReportsGenerated.WithLabelValues(name).Inc()
	h.logger.Info().Str("file", path).Msg("dashboard written")
	return nil
}

// Watch starts watching the data directory; cached months and CSV
// exports that change on disk trigger a regeneration.
func (h *Handler) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(h.dataDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch data directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop(ctx)

	h.logger.Info().Str("dir", h.dataDir).Msg("watching data directory for changes")
	return nil
}

// Stop stops the data directory watcher.
func (h *Handler) Stop() {
	close(h.stopCh)
	if h.watcher != nil {
		h.watcher.Close()
	}
}

func (h *Handler) watchLoop(ctx context.Context) {
	// Editors and exports produce bursts of events; coalesce them.
	const settle = 2 * time.Second
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			ext := filepath.Ext(event.Name)
			if ext != ".json" && ext != ".csv" {
				continue
			}
			h.logger.Debug().Str("file", event.Name).Str("event", event.Op.String()).Msg("data file changed")
			if timer == nil {
				timer = time.NewTimer(settle)
				timerCh = timer.C
			} else {
				timer.Reset(settle)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			if err := h.GenerateAll(ctx); err != nil {
				h.logger.Error().Err(err).Msg("regeneration after data change failed")
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("data watcher error")

		case <-h.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}
