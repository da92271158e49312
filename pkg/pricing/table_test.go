package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"snapcost/internal/models"
)

func f(v float64) *float64 { return &v }

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	data := `{
		"generated_at": "2026-03-01T00:00:00Z",
		"currency": "USD",
		"regions": {
			"us-east-1": {
				"ebs_snapshot_gb_month": 0.05,
				"ebs_snapshot_archive_gb_month": 0.0125,
				"rds_snapshot_gb_month": 0.095
			},
			"eu-west-1": {
				"ebs_snapshot_gb_month": 0.05
			}
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Currency != "USD" {
		t.Errorf("Currency = %q", tbl.Currency)
	}
	if got := tbl.RegionCodes(); len(got) != 2 || got[0] != "eu-west-1" || got[1] != "us-east-1" {
		t.Errorf("RegionCodes = %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load of a missing file succeeded")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("Load of malformed JSON succeeded")
	}
}

func TestRate(t *testing.T) {
	tbl := &Table{Regions: map[string]RegionRates{
		"us-east-1": {
			EBSSnapshotGBMonth:        f(0.05),
			EBSSnapshotArchiveGBMonth: f(0.0125),
			RDSSnapshotGBMonth:        f(0.095),
		},
		"eu-west-1": {
			EBSSnapshotGBMonth: f(0.05),
		},
	}}

	tests := []struct {
		name   string
		region string
		kind   models.SnapshotKind
		tier   string
		want   float64
		ok     bool
	}{
		{"ebs standard", "us-east-1", models.KindEBS, models.TierStandard, 0.05, true},
		{"ebs absent tier prices as standard", "us-east-1", models.KindEBS, "", 0.05, true},
		{"ebs archive", "us-east-1", models.KindEBS, models.TierArchive, 0.0125, true},
		{"db ignores tier", "us-east-1", models.KindDB, models.TierArchive, 0.095, true},
		{"unknown region", "mars-central-1", models.KindEBS, "", 0, false},
		{"nil archive rate misses", "eu-west-1", models.KindEBS, models.TierArchive, 0, false},
		{"nil rds rate misses", "eu-west-1", models.KindDB, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tbl.Rate(tt.region, tt.kind, tt.tier)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Rate(%s, %s, %s) = (%v, %v), want (%v, %v)",
					tt.region, tt.kind, tt.tier, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEmptyTableAlwaysMisses(t *testing.T) {
	if _, ok := Empty().Rate("us-east-1", models.KindEBS, ""); ok {
		t.Error("empty table returned a rate")
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	src := &Table{
		GeneratedAt: "2026-03-01T00:00:00Z",
		Currency:    "USD",
		Regions: map[string]RegionRates{
			"us-east-1": {EBSSnapshotGBMonth: f(0.05)},
		},
	}
	if err := src.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rate, ok := got.Rate("us-east-1", models.KindEBS, "")
	if !ok || rate != 0.05 {
		t.Errorf("Rate after round trip = (%v, %v)", rate, ok)
	}
	if _, ok := got.Rate("us-east-1", models.KindDB, ""); ok {
		t.Error("nil rds rate survived as a hit")
	}
}
