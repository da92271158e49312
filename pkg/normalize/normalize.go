// Package normalize turns resolver results into canonical output records,
// attaching size, age, environment, and cost with deterministic fallback
// rules for missing data.
package normalize

import (
	"time"

	"go.uber.org/zap"

	"snapcost/internal/models"
	"snapcost/pkg/pricing"
	"snapcost/pkg/resolver"
	"snapcost/pkg/utils"
)

const bytesPerGB = 1 << 30

// Environment tag keys in priority order; lookups are case-insensitive, so
// the later entries only matter for documentation of intent.
var environmentTagKeys = []string{"environment", "env", "Environment"}

// Normalizer builds ResolvedSnapshots. It holds the run's price table and
// clock, so output is deterministic under test.
type Normalizer struct {
	prices *pricing.Table
	now    func() time.Time
	logger *zap.Logger
}

// New returns a Normalizer priced against the given table.
func New(prices *pricing.Table, logger *zap.Logger) *Normalizer {
	return &Normalizer{prices: prices, now: time.Now, logger: logger}
}

// WithClock pins the normalizer's clock, for tests.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize converts one resolver result into the canonical record. Missing
// or malformed fields degrade to empty values or the cost sentinel; they
// never fail the record.
func (n *Normalizer) Normalize(res resolver.Result) models.ResolvedSnapshot {
	snap := res.Snapshot

	rec := models.ResolvedSnapshot{
		SnapshotID:   snap.ID,
		SnapshotType: snap.Kind,
		AccountID:    snap.AccountID,
		Region:       snap.Region,
		Orphaned:     res.Status != models.StatusResolved,
		Status:       res.Status,
	}

	if snap.CreatedAt != nil {
		rec.CreationDate = snap.CreatedAt.UTC().Format(time.RFC3339)
		rec.AgeDays = utils.ElapsedDays(*snap.CreatedAt, n.now())
	}

	rec.SizeGB = n.sizeGB(snap)

	if res.Parent != nil {
		rec.ParentResourceType = string(res.Parent.Type)
		rec.ParentResourceID = res.Parent.ID
		rec.ParentName = res.Parent.Name
		rec.ParentState = res.Parent.State
		rec.Environment = utils.FirstTagFold(res.Parent.Tags, environmentTagKeys...)
	} else {
		rec.Environment = utils.FirstTagFold(snap.Tags, environmentTagKeys...)
	}

	rec.MonthlyCost, rec.TotalCost = n.cost(snap, rec.SizeGB, rec.AgeDays)
	return rec
}

// sizeGB applies the kind- and tier-dependent size rules. For EBS, a
// non-standard tier (e.g. archive) always prices the full volume size; the
// incremental byte count only applies to the standard tier.
func (n *Normalizer) sizeGB(snap models.SnapshotRecord) *float64 {
	var size *float64
	switch snap.Kind {
	case models.KindDB:
		size = snap.AllocatedStorage
	case models.KindEBS:
		if snap.StorageTier == "" || snap.StorageTier == models.TierStandard {
			if snap.FullSnapshotSizeBytes != nil {
				gb := *snap.FullSnapshotSizeBytes / bytesPerGB
				size = &gb
			} else {
				size = snap.VolumeSize
			}
		} else {
			size = snap.VolumeSize
		}
	}

	if size == nil {
		n.logger.Warn("snapshot has no usable size field",
			zap.String("snapshot", snap.ID),
			zap.String("kind", string(snap.Kind)),
			zap.String("storageTier", snap.StorageTier))
	}
	return size
}

// cost returns both cost fields, or both nil (the sentinel) when size or
// price data is unavailable. The two are never mixed.
func (n *Normalizer) cost(snap models.SnapshotRecord, sizeGB *float64, ageDays int) (*float64, *float64) {
	if sizeGB == nil {
		return nil, nil
	}

	rate, ok := n.prices.Rate(snap.Region, snap.Kind, snap.StorageTier)
	if !ok {
		n.logger.Warn("no price for snapshot",
			zap.String("snapshot", snap.ID),
			zap.String("region", snap.Region),
			zap.String("kind", string(snap.Kind)),
			zap.String("storageTier", snap.StorageTier))
		return nil, nil
	}

	monthly := *sizeGB * rate
	total := monthly * utils.DaysToMonths(ageDays)
	return &monthly, &total
}
