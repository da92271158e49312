// Package formatter renders resolved snapshots as CSV, HTML, and terminal
// summary output.
package formatter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"snapcost/internal/models"
)

// CSVExporter streams records to a CSV file with the canonical header.
type CSVExporter struct {
	path string
}

// NewCSVExporter returns an exporter writing to path, creating parent
// directories as needed.
func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path}
}

// Path returns the output file path.
func (e *CSVExporter) Path() string { return e.path }

// Export writes the header and one row per record. Column order is fixed
// by models.Header and never varies by input.
func (e *CSVExporter) Export(records []models.ResolvedSnapshot) error {
	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	f, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("creating CSV report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", rec.SnapshotID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV report: %w", err)
	}
	return nil
}
