package formatter

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"snapcost/internal/models"
)

// HTMLExporter renders the snapshot report as a standalone HTML page with
// summary counts and the full record table.
type HTMLExporter struct {
	path string
}

// NewHTMLExporter returns an exporter writing to path.
func NewHTMLExporter(path string) *HTMLExporter {
	return &HTMLExporter{path: path}
}

// Path returns the output file path.
func (e *HTMLExporter) Path() string { return e.path }

type htmlReport struct {
	GeneratedAt  string
	Total        int
	Resolved     int
	Orphaned     int
	Failed       int
	MonthlyTotal string
	Header       []string
	Rows         [][]string
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Snapshot Report</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
.summary { margin-bottom: 1.5em; }
.summary span { display: inline-block; margin-right: 2em; }
.summary b { font-size: 1.2em; }
table { border-collapse: collapse; font-size: 0.85em; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #f0f0f0; }
tr.orphaned td { background: #fff4f4; }
</style>
</head>
<body>
<h1>Snapshot Report</h1>
<p>Generated {{.GeneratedAt}}</p>
<div class="summary">
<span><b>{{.Total}}</b> snapshots</span>
<span><b>{{.Resolved}}</b> resolved</span>
<span><b>{{.Orphaned}}</b> orphaned</span>
<span><b>{{.Failed}}</b> resolution failed</span>
<span><b>{{.MonthlyTotal}}</b> est. monthly spend</span>
</div>
<table>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
</body>
</html>
`))

// Export writes the HTML report.
func (e *HTMLExporter) Export(records []models.ResolvedSnapshot) error {
	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	report := htmlReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Header:      models.Header,
	}

	var monthly float64
	for _, rec := range records {
		report.Total++
		switch rec.Status {
		case models.StatusResolved:
			report.Resolved++
		case models.StatusOrphaned:
			report.Orphaned++
		case models.StatusFailed:
			report.Failed++
		}
		if rec.MonthlyCost != nil {
			monthly += *rec.MonthlyCost
		}
		report.Rows = append(report.Rows, rec.Row())
	}
	report.MonthlyTotal = fmt.Sprintf("$%.2f", monthly)

	f, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("creating HTML report: %w", err)
	}
	defer f.Close()

	if err := reportTemplate.Execute(f, report); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}
	return nil
}
