package idgen_test

import (
	"regexp"
	"testing"

	"github.com/artpar/teamlens/adapters/idgen"
)

func TestUUID_New(t *testing.T) {
	g := idgen.UUID{}

	id := g.New()
	if id == "" {
		t.Error("expected non-empty ID")
	}

	// UUID v4 format: 8-4-4-4-12 hex chars
	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	if !uuidRegex.MatchString(id) {
		t.Errorf("ID %s doesn't match UUID v4 format", id)
	}
}

func TestUUID_New_Unique(t *testing.T) {
	g := idgen.UUID{}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.New()
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestSequential_New(t *testing.T) {
	g := idgen.NewSequential("run_")

	if got := g.New(); got != "run_1" {
		t.Errorf("first ID = %q, want run_1", got)
	}
	if got := g.New(); got != "run_2" {
		t.Errorf("second ID = %q, want run_2", got)
	}
}
