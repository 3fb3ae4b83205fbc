package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/artpar/teamlens/config"
	"github.com/rs/zerolog"
)

func TestHolder_GetAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teamlens.yaml")
	if err := os.WriteFile(path, []byte("billing:\n  months_back: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error: %v", err)
	}
	defer h.Stop()

	if got := h.Get().Billing.MonthsBack; got != 3 {
		t.Fatalf("MonthsBack = %d, want 3", got)
	}

	var notified *config.Config
	h.OnChange(func(c *config.Config) { notified = c })

	if err := os.WriteFile(path, []byte("billing:\n  months_back: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	if got := h.Get().Billing.MonthsBack; got != 6 {
		t.Errorf("MonthsBack after reload = %d, want 6", got)
	}
	if notified == nil || notified.Billing.MonthsBack != 6 {
		t.Error("OnChange callback not invoked with new config")
	}
}

func TestHolder_ReloadKeepsOldConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teamlens.yaml")
	if err := os.WriteFile(path, []byte("billing:\n  months_back: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("billing:\n  months_back: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error for invalid config")
	}

	if got := h.Get().Billing.MonthsBack; got != 3 {
		t.Errorf("MonthsBack = %d, want old value 3", got)
	}
}
