// Package csvusage reads the monthly team usage CSV exports.
//
// Filenames encode the period as MM-YYYY (e.g. 12-2025-team-usage-events.csv).
// Each row is one user interaction; the columns of interest are User,
// Date, and Requests (decimal).
package csvusage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/teamlens/domain/adoption"
	"github.com/artpar/teamlens/domain/period"
	"github.com/artpar/teamlens/ports"
	"github.com/rs/zerolog"
)

// Reader scans a directory of monthly usage exports.
type Reader struct {
	dir    string
	logger zerolog.Logger
}

// New creates a reader over the given export directory.
func New(dir string, logger zerolog.Logger) *Reader {
	return &Reader{dir: dir, logger: logger}
}

// Rows parses every export in the directory into interaction rows.
// Files whose names don't carry a MM-YYYY prefix are skipped with a
// warning; a missing directory yields no rows and no error.
func (r *Reader) Rows() ([]adoption.Row, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		r.logger.Warn().Str("dir", r.dir).Msg("usage export directory does not exist")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read export directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var rows []adoption.Row
	for _, name := range names {
		p, err := period.ParseFilename(name)
		if err != nil {
			r.logger.Warn().Str("file", name).Msg("cannot parse period from filename, skipping")
			continue
		}

		fileRows, err := r.readFile(filepath.Join(r.dir, name), p)
		if err != nil {
			return nil, fmt.Errorf("process %s: %w", name, err)
		}
		rows = append(rows, fileRows...)
	}

	return rows, nil
}

func (r *Reader) readFile(path string, p period.Period) ([]adoption.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	userCol, ok := cols["User"]
	if !ok {
		return nil, fmt.Errorf("missing User column")
	}
	dateCol, hasDate := cols["Date"]
	reqCol, hasReq := cols["Requests"]

	var rows []adoption.Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		email := strings.ToLower(strings.TrimSpace(field(record, userCol)))
		if email == "" {
			continue
		}

		row := adoption.Row{Email: email, Period: p}
		if hasReq {
			row.Requests = parseRequests(field(record, reqCol))
		}
		if hasDate {
			row.Date = parseDate(field(record, dateCol))
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// parseRequests parses the decimal request count; empty or invalid
// values count as zero, matching the export's loose formatting.
func parseRequests(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDate accepts the export's timestamp formats; unparseable dates
// are dropped (they only feed last-activity tracking).
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Ensure interface compliance.
var _ ports.UsageRowSource = (*Reader)(nil)
