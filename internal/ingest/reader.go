package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/e60manuels/smartmeter-rag/internal/domain"
)

// logLine is one line of a meter log file.
type logLine struct {
	Timestamp string             `json:"timestamp"`
	Data      map[string]float64 `json:"data"`
}

// LoadDir reads every .jsonl file in dir and returns the raw reading
// records in file order. Malformed lines are logged and skipped; they
// never abort the run.
func (p *Pipeline) LoadDir(dir string) ([]domain.Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .jsonl files found in %s", dir)
	}
	sort.Strings(files)

	var records []domain.Record
	for _, name := range files {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			raw := strings.TrimSpace(scanner.Text())
			if raw == "" {
				continue
			}
			rec, err := p.parseLine(raw)
			if err != nil {
				p.log.WithField("file", name).WithField("line", lineNo).
					Warnf("skipping malformed line: %v", err)
				continue
			}
			records = append(records, rec)
		}
		err = scanner.Err()
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		p.log.WithField("file", name).Infof("loaded %d records so far", len(records))
	}
	return records, nil
}

func (p *Pipeline) parseLine(raw string) (domain.Record, error) {
	var l logLine
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return domain.Record{}, err
	}
	if l.Timestamp == "" {
		return domain.Record{}, fmt.Errorf("missing timestamp")
	}
	ts, err := p.parseTimestamp(l.Timestamp)
	if err != nil {
		return domain.Record{}, err
	}
	metrics := make(map[domain.Metric]float64)
	for k, v := range l.Data {
		m := domain.Metric(k)
		if m.Known() {
			metrics[m] = v
		}
	}
	local := ts.In(p.loc)
	return domain.Record{
		ID:        l.Timestamp,
		Timestamp: ts.Unix(),
		Level:     domain.LevelRaw,
		Date:      local.Format("2006-01-02"),
		Metrics:   metrics,
		Summary:   rawSummary(metrics, local),
	}, nil
}

// parseTimestamp accepts RFC3339 or a naive local timestamp, with an
// optional fractional part that is dropped.
func (p *Pipeline) parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	trimmed := strings.SplitN(s, ".", 2)[0]
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, trimmed, p.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
