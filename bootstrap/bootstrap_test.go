package bootstrap_test

import (
	"testing"

	"github.com/artpar/teamlens/bootstrap"
	"github.com/artpar/teamlens/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadWithFallback("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	return cfg
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Setenv("CURSOR_API_KEY", "")
	if _, err := bootstrap.New(testConfig(t)); err == nil {
		t.Fatal("expected error without CURSOR_API_KEY")
	}
}

func TestNew_AssemblesApp(t *testing.T) {
	t.Setenv("CURSOR_API_KEY", "key_test")

	a, err := bootstrap.New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if a.Billing == nil || a.Adoption == nil || a.Web == nil {
		t.Error("services not assembled")
	}
	if err := a.Shutdown(); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}
