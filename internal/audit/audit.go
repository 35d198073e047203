// Package audit persists per-cycle decision records as plain files: an
// append-only text log of rationales and one JSON artifact per cycle with
// the full report.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"coinpilot/internal/domain"
)

const (
	advisoryLogName = "financial_advisory_log.txt"
	timestampLayout = "2006-01-02_15-04-05"
)

type Logger struct {
	dir string

	now func() time.Time
}

func NewLogger(dir string) *Logger {
	return &Logger{dir: dir, now: time.Now}
}

// Record appends the cycle's rationale to the advisory log and writes the
// full report as a standalone JSON file named by timestamp.
func (l *Logger) Record(report domain.CycleReport) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	stamp := l.now().Format(timestampLayout)
	if err := l.appendAdvisory(stamp, report); err != nil {
		return err
	}
	return l.writeCycleFile(stamp, report)
}

func (l *Logger) appendAdvisory(stamp string, report domain.CycleReport) error {
	f, err := os.OpenFile(filepath.Join(l.dir, advisoryLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open advisory log: %w", err)
	}
	defer f.Close()

	entry := struct {
		Rationale string               `json:"rationale"`
		Actions   []domain.TradeAction `json:"actions"`
	}{report.Rationale, report.Actions}

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "\n\n=== %s ===\n%s", stamp, payload); err != nil {
		return fmt.Errorf("append advisory log: %w", err)
	}
	return nil
}

func (l *Logger) writeCycleFile(stamp string, report domain.CycleReport) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	name := filepath.Join(l.dir, fmt.Sprintf("cycle_%s.json", stamp))
	if err := os.WriteFile(name, payload, 0o644); err != nil {
		return fmt.Errorf("write cycle file: %w", err)
	}
	return nil
}
