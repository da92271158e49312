// Package pricing loads the per-region snapshot price table and answers
// rate lookups for the cost engine.
package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"snapcost/internal/models"
)

// RegionRates holds the GB-month rates for one region. A nil rate means the
// price is unknown and lookups against it miss.
type RegionRates struct {
	EBSSnapshotGBMonth        *float64 `json:"ebs_snapshot_gb_month"`
	EBSSnapshotArchiveGBMonth *float64 `json:"ebs_snapshot_archive_gb_month"`
	RDSSnapshotGBMonth        *float64 `json:"rds_snapshot_gb_month"`
}

// Table is the static pricing lookup for one run, loaded once and read-only
// afterwards.
type Table struct {
	GeneratedAt string                 `json:"generated_at,omitempty"`
	Currency    string                 `json:"currency,omitempty"`
	Regions     map[string]RegionRates `json:"regions"`
}

// Load reads a price table from a JSON file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading price table: %w", err)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing price table %s: %w", path, err)
	}
	if t.Regions == nil {
		t.Regions = make(map[string]RegionRates)
	}
	return &t, nil
}

// Empty returns a table with no regions; every lookup against it misses.
func Empty() *Table {
	return &Table{Regions: make(map[string]RegionRates)}
}

// Rate returns the GB-month price for (region, kind, tier). The tier is
// ignored for DB snapshots; for EBS snapshots an absent tier prices as
// standard.
func (t *Table) Rate(region string, kind models.SnapshotKind, tier string) (float64, bool) {
	rates, ok := t.Regions[region]
	if !ok {
		return 0, false
	}

	var rate *float64
	switch kind {
	case models.KindDB:
		rate = rates.RDSSnapshotGBMonth
	case models.KindEBS:
		if tier == models.TierArchive {
			rate = rates.EBSSnapshotArchiveGBMonth
		} else {
			rate = rates.EBSSnapshotGBMonth
		}
	}
	if rate == nil {
		return 0, false
	}
	return *rate, true
}

// RegionCodes returns the table's regions in sorted order.
func (t *Table) RegionCodes() []string {
	codes := make([]string, 0, len(t.Regions))
	for r := range t.Regions {
		codes = append(codes, r)
	}
	sort.Strings(codes)
	return codes
}
