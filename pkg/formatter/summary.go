package formatter

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"snapcost/internal/models"
	"snapcost/pkg/inventory"
	"snapcost/pkg/pricing"
	"snapcost/pkg/utils"
)

// PrintSummaryTable prints per-kind resolution counts and estimated
// monthly spend in a kubectl-style table.
func PrintSummaryTable(records []models.ResolvedSnapshot) {
	type row struct {
		total, resolved, orphaned, failed int
		monthly                           float64
		unpriced                          int
	}
	byKind := map[models.SnapshotKind]*row{}
	kinds := []models.SnapshotKind{models.KindEBS, models.KindDB}
	for _, k := range kinds {
		byKind[k] = &row{}
	}

	for _, rec := range records {
		r, ok := byKind[rec.SnapshotType]
		if !ok {
			continue
		}
		r.total++
		switch rec.Status {
		case models.StatusResolved:
			r.resolved++
		case models.StatusOrphaned:
			r.orphaned++
		case models.StatusFailed:
			r.failed++
		}
		if rec.MonthlyCost != nil {
			r.monthly += *rec.MonthlyCost
		} else {
			r.unpriced++
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tTOTAL\tRESOLVED\tORPHANED\tFAILED\tUNPRICED\tMONTHLY COST")
	var grand row
	for _, k := range kinds {
		r := byKind[k]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t$%s\n",
			k, r.total, r.resolved, r.orphaned, r.failed, r.unpriced,
			humanize.CommafWithDigits(r.monthly, 2))
		grand.total += r.total
		grand.resolved += r.resolved
		grand.orphaned += r.orphaned
		grand.failed += r.failed
		grand.unpriced += r.unpriced
		grand.monthly += r.monthly
	}
	fmt.Fprintf(w, "all\t%d\t%d\t%d\t%d\t%d\t$%s\n",
		grand.total, grand.resolved, grand.orphaned, grand.failed, grand.unpriced,
		humanize.CommafWithDigits(grand.monthly, 2))
	w.Flush()
}

// PrintAPIStats prints the inventory client's call counters.
func PrintAPIStats(stats inventory.Stats) {
	fmt.Printf("Inventory API: %d calls, %d cache hits, %d retries\n",
		stats.Calls, stats.CacheHits, stats.Retries)
}

// PrintTimestamp prints the scan completion time and duration.
func PrintTimestamp(scanStartTime time.Time, scanDuration time.Duration) {
	timeStr := scanStartTime.Format("2006-01-02 15:04:05")
	fmt.Printf("Scan completed at %s (took %.2fs)\n", timeStr, scanDuration.Seconds())
}

// PrintPricingTable prints the loaded price table, one region per line.
func PrintPricingTable(t *pricing.Table) {
	if len(t.Regions) == 0 {
		fmt.Println("No pricing data available")
		return
	}

	if t.GeneratedAt != "" {
		fmt.Printf("Snapshot pricing (generated %s, %s)\n", t.GeneratedAt, t.Currency)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tNAME\tEBS SNAPSHOT\tEBS ARCHIVE\tRDS SNAPSHOT")
	for _, region := range t.RegionCodes() {
		rates := t.Regions[region]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", region,
			utils.GetRegionDescriptiveName(region),
			formatRate(rates.EBSSnapshotGBMonth),
			formatRate(rates.EBSSnapshotArchiveGBMonth),
			formatRate(rates.RDSSnapshotGBMonth))
	}
	w.Flush()
}

func formatRate(rate *float64) string {
	if rate == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.4f", *rate)
}
