// Package filecache stores fetched usage events as one JSON document
// per calendar month.
//
// A present document is authoritative: the pipeline never re-fetches a
// cached period, so the only way to refresh a month is to delete its
// file before the next run.
package filecache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artpar/teamlens/domain/billing"
	"github.com/artpar/teamlens/domain/period"
	"github.com/artpar/teamlens/ports"
)

// Store keeps per-period JSON documents under a single directory.
type Store struct {
	dir   string
	clock ports.Clock
}

// New creates a store rooted at dir. The directory is created lazily on
// the first Save.
func New(dir string, clock ports.Clock) *Store {
	return &Store{dir: dir, clock: clock}
}

// Path returns the document location for a period.
func (s *Store) Path(p period.Period) string {
	return filepath.Join(s.dir, p.Key()+"-usage-based-data.json")
}

// Exists reports whether the period's document is present.
func (s *Store) Exists(p period.Period) bool {
	_, err := os.Stat(s.Path(p))
	return err == nil
}

// Save writes the period's document, creating parent directories as
// needed and overwriting any existing document unconditionally.
func (s *Store) Save(p period.Period, events []billing.UsageEvent) (string, error) {
	doc := ports.MonthCache{
		Month:       p.Key(),
		FetchedAt:   s.clock.Now().UTC(),
		TotalEvents: len(events),
		Events:      events,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal cache for %s: %w", p.Key(), err)
	}

	path := s.Path(p)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write cache for %s: %w", p.Key(), err)
	}

	return path, nil
}

// Load returns the stored document verbatim. A missing document is not
// an error: it returns (zero, false, nil). Corrupt or unreadable storage
// is an error.
func (s *Store) Load(p period.Period) (ports.MonthCache, bool, error) {
	data, err := os.ReadFile(s.Path(p))
	if os.IsNotExist(err) {
		return ports.MonthCache{}, false, nil
	}
	if err != nil {
		return ports.MonthCache{}, false, fmt.Errorf("read cache for %s: %w", p.Key(), err)
	}

	var doc ports.MonthCache
	if err := json.Unmarshal(data, &doc); err != nil {
		return ports.MonthCache{}, false, fmt.Errorf("corrupt cache for %s: %w", p.Key(), err)
	}

	return doc, true, nil
}

// Ensure interface compliance.
var _ ports.EventCache = (*Store)(nil)
