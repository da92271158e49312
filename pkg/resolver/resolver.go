// Package resolver attaches each snapshot to its owning resource using the
// fewest possible batched inventory calls: one hop for DB snapshots, two
// hops (volume, then instance) for EBS snapshots.
package resolver

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"snapcost/internal/models"
	"snapcost/pkg/inventory"
)

// AssetFetcher is the slice of the inventory client the resolver needs.
type AssetFetcher interface {
	FetchBatch(ctx context.Context, assetType string, keys []string) ([]inventory.Asset, error)
}

// Result pairs a snapshot with its resolution outcome. Every input snapshot
// produces exactly one Result, in input order.
type Result struct {
	Snapshot models.SnapshotRecord
	Parent   *models.ParentRecord
	Status   models.ResolutionStatus
}

// Resolver drives the batched lookups for one run.
type Resolver struct {
	client    AssetFetcher
	batchSize int
	logger    *zap.Logger
}

// New returns a Resolver that chunks key sets to batchSize keys per call.
func New(client AssetFetcher, batchSize int, logger *zap.Logger) *Resolver {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Resolver{client: client, batchSize: batchSize, logger: logger}
}

// Resolve classifies every snapshot as resolved, orphaned, or failed.
// Lookup failures are scoped to the key subsets whose batch calls
// exhausted their retries; everything else still resolves.
func (r *Resolver) Resolve(ctx context.Context, snaps []models.SnapshotRecord) []Result {
	results := make([]Result, len(snaps))

	var ebs, db []int
	for i, s := range snaps {
		results[i].Snapshot = s
		switch s.Kind {
		case models.KindEBS:
			ebs = append(ebs, i)
		case models.KindDB:
			db = append(db, i)
		default:
			r.logger.Warn("unknown snapshot kind", zap.String("snapshot", s.ID), zap.String("kind", string(s.Kind)))
			results[i].Status = models.StatusOrphaned
		}
	}

	if len(db) > 0 {
		r.resolveDB(ctx, snaps, db, results)
	}
	if len(ebs) > 0 {
		r.resolveEBS(ctx, snaps, ebs, results)
	}
	return results
}

// resolveDB is the one-hop chain: db snapshot -> db instance.
func (r *Resolver) resolveDB(ctx context.Context, snaps []models.SnapshotRecord, idx []int, results []Result) {
	keys := distinctKeys(snaps, idx)
	index, failed := r.fetchIndex(ctx, inventory.AssetTypeDBInstance, keys)

	for _, i := range idx {
		fk := snaps[i].ForeignKey
		switch {
		case fk == "":
			results[i].Status = models.StatusOrphaned
		case failed[fk]:
			results[i].Status = models.StatusFailed
		default:
			asset, ok := index[fk]
			if !ok {
				results[i].Status = models.StatusOrphaned
				continue
			}
			parent := asset.ToParent(models.ParentDBInstance)
			results[i].Parent = &parent
			results[i].Status = models.StatusResolved
		}
	}
}

// resolveEBS is the two-hop chain: snapshot -> volume -> attached instance.
// Hop 2 cannot start until hop 1's instance-id set is known.
func (r *Resolver) resolveEBS(ctx context.Context, snaps []models.SnapshotRecord, idx []int, results []Result) {
	volKeys := distinctKeys(snaps, idx)
	volAssets, failedVols := r.fetchIndex(ctx, inventory.AssetTypeEBSVolume, volKeys)

	volumes := make(map[string]models.VolumeRecord, len(volAssets))
	instanceKeys := make([]string, 0, len(volAssets))
	seen := make(map[string]bool)
	for id, asset := range volAssets {
		vol := asset.ToVolume()
		volumes[id] = vol
		if vol.AttachedInstanceID != "" && !seen[vol.AttachedInstanceID] {
			seen[vol.AttachedInstanceID] = true
			instanceKeys = append(instanceKeys, vol.AttachedInstanceID)
		}
	}

	instances, failedInstances := r.fetchIndex(ctx, inventory.AssetTypeEC2Instance, instanceKeys)

	for _, i := range idx {
		fk := snaps[i].ForeignKey
		if fk == "" {
			results[i].Status = models.StatusOrphaned
			continue
		}
		if failedVols[fk] {
			results[i].Status = models.StatusFailed
			continue
		}
		vol, ok := volumes[fk]
		if !ok || vol.AttachedInstanceID == "" {
			results[i].Status = models.StatusOrphaned
			continue
		}
		if failedInstances[vol.AttachedInstanceID] {
			results[i].Status = models.StatusFailed
			continue
		}
		asset, ok := instances[vol.AttachedInstanceID]
		if !ok {
			results[i].Status = models.StatusOrphaned
			continue
		}
		parent := asset.ToParent(models.ParentEC2Instance)
		results[i].Parent = &parent
		results[i].Status = models.StatusResolved
	}
}

// fetchIndex batch-fetches one key set, chunked to the per-call cap, and
// returns a key -> asset index plus the set of keys whose chunk failed.
// Chunks cover disjoint key subsets, so they run concurrently; one chunk's
// backoff schedule never delays another.
func (r *Resolver) fetchIndex(ctx context.Context, assetType string, keys []string) (map[string]inventory.Asset, map[string]bool) {
	index := make(map[string]inventory.Asset, len(keys))
	failed := make(map[string]bool)
	if len(keys) == 0 {
		return index, failed
	}

	chunks := chunk(keys, r.batchSize)
	type chunkResult struct {
		keys   []string
		assets []inventory.Asset
		err    error
	}
	out := make([]chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i, part := range chunks {
		wg.Add(1)
		go func(slot int, part []string) {
			defer wg.Done()
			assets, err := r.client.FetchBatch(ctx, assetType, part)
			out[slot] = chunkResult{keys: part, assets: assets, err: err}
		}(i, part)
	}
	wg.Wait()

	for _, res := range out {
		if res.err != nil {
			bf := &inventory.BatchFailure{AssetType: assetType, Keys: res.keys, Err: res.err}
			r.logger.Error("batch lookup failed, affected snapshots marked unresolved", zap.Error(bf))
			for _, k := range res.keys {
				failed[k] = true
			}
			continue
		}
		for _, asset := range res.assets {
			key := asset.Key()
			if key == "" {
				continue
			}
			if _, dup := index[key]; dup {
				// Data-quality signal, not a resolver error: first record
				// in response order wins
				r.logger.Warn("batch query returned multiple records for one key",
					zap.String("assetType", assetType), zap.String("key", key))
				continue
			}
			index[key] = asset
		}
	}
	return index, failed
}

// distinctKeys collects the distinct non-empty foreign keys of the selected
// snapshots, preserving first-seen order.
func distinctKeys(snaps []models.SnapshotRecord, idx []int) []string {
	seen := make(map[string]bool, len(idx))
	keys := make([]string, 0, len(idx))
	for _, i := range idx {
		fk := snaps[i].ForeignKey
		if fk == "" || seen[fk] {
			continue
		}
		seen[fk] = true
		keys = append(keys, fk)
	}
	return keys
}

func chunk(keys []string, size int) [][]string {
	var parts [][]string
	for len(keys) > size {
		parts = append(parts, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		parts = append(parts, keys)
	}
	return parts
}
