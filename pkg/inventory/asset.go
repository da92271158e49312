package inventory

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"snapcost/internal/models"
)

// Asset type selectors understood by the inventory endpoint
const (
	AssetTypeEBSSnapshot = "aws_ebs_snapshot"
	AssetTypeDBSnapshot  = "aws_db_snapshot"
	AssetTypeEBSVolume   = "aws_ebs_volume"
	AssetTypeEC2Instance = "aws_instance"
	AssetTypeDBInstance  = "aws_db_instance"
)

// Tag is a key/value pair from an asset's tagsList.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Asset is one raw inventory record. The API is loosely typed: anything
// provider-specific lives in TFObject, so typed records are built through
// the To* methods below rather than accessed ad hoc.
type Asset struct {
	AssetID              string         `json:"assetId"`
	ResourceID           string         `json:"resourceId"`
	ARN                  string         `json:"arn"`
	ProviderID           string         `json:"providerId"`
	Region               string         `json:"region"`
	ResourceCreationDate int64          `json:"resourceCreationDate"`
	TagsList             []Tag          `json:"tagsList"`
	TFObject             map[string]any `json:"tfObject"`
}

// Key returns the identifier batch queries filter on.
func (a Asset) Key() string {
	if a.ResourceID != "" {
		return a.ResourceID
	}
	return a.AssetID
}

func (a Asset) id() string {
	if a.AssetID != "" {
		return a.AssetID
	}
	return a.ResourceID
}

func (a Asset) tfString(key string) string {
	if v, ok := a.TFObject[key].(string); ok {
		return v
	}
	return ""
}

func (a Asset) tfFloat(key string) *float64 {
	v, ok := a.TFObject[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

// tags merges tfObject tags with the top-level tagsList, tfObject winning.
func (a Asset) tags() map[string]string {
	out := make(map[string]string)
	for _, t := range a.TagsList {
		if t.Key != "" {
			out[t.Key] = t.Value
		}
	}
	if raw, ok := a.TFObject["tags"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

// region returns the asset's region, stripping an availability-zone suffix
// ("us-east-1a" -> "us-east-1") and falling back to the ARN region field.
func (a Asset) region() string {
	r := a.Region
	if r == "" {
		// arn:aws:ec2:region:account:snapshot/snap-id
		parts := strings.Split(a.ARN, ":")
		if len(parts) >= 4 {
			r = parts[3]
		}
	}
	if len(r) > 1 {
		last := r[len(r)-1]
		prev := r[len(r)-2]
		if last >= 'a' && last <= 'f' && prev >= '0' && prev <= '9' {
			r = r[:len(r)-1]
		}
	}
	return r
}

// ToSnapshot validates a raw snapshot asset into a SnapshotRecord. Missing
// or malformed fields degrade to their zero value with a warning; they never
// fail the record.
func (a Asset) ToSnapshot(kind models.SnapshotKind, logger *zap.Logger) models.SnapshotRecord {
	rec := models.SnapshotRecord{
		ID:        a.id(),
		Kind:      kind,
		AccountID: a.ProviderID,
		Region:    a.region(),
		Tags:      a.tags(),
	}

	if a.ResourceCreationDate > 0 {
		t := time.Unix(a.ResourceCreationDate, 0).UTC()
		rec.CreatedAt = &t
	} else {
		logger.Warn("snapshot has no creation date", zap.String("snapshot", rec.ID))
	}

	if rec.AccountID == "" {
		logger.Warn("snapshot has no account id", zap.String("snapshot", rec.ID))
	}
	if rec.Region == "" {
		logger.Warn("snapshot has no region", zap.String("snapshot", rec.ID))
	}

	switch kind {
	case models.KindEBS:
		rec.StorageTier = a.tfString("storage_tier")
		rec.FullSnapshotSizeBytes = a.tfFloat("full_snapshot_size_in_bytes")
		rec.VolumeSize = a.tfFloat("volume_size")
		rec.ForeignKey = a.tfString("volume_id")
		if rec.ForeignKey == "" {
			// Deleted volumes sometimes survive only in the snapshot ARN
			if i := strings.Index(a.ARN, "volume/"); i >= 0 {
				rec.ForeignKey = a.ARN[i+len("volume/"):]
			}
		}
	case models.KindDB:
		rec.AllocatedStorage = a.tfFloat("allocated_storage")
		rec.ForeignKey = a.tfString("db_instance_identifier")
	}

	return rec
}

// ToVolume extracts the snapshot -> instance hop fields from a volume asset.
func (a Asset) ToVolume() models.VolumeRecord {
	vol := models.VolumeRecord{ID: a.Key()}
	attachments, ok := a.TFObject["attachments"].([]any)
	if !ok {
		return vol
	}
	for _, att := range attachments {
		m, ok := att.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := m["instance_id"].(string); ok && id != "" {
			vol.AttachedInstanceID = id
			break
		}
	}
	return vol
}

// ToParent validates an instance asset into a ParentRecord.
func (a Asset) ToParent(ptype models.ParentType) models.ParentRecord {
	tags := a.tags()
	p := models.ParentRecord{
		ID:   a.Key(),
		Type: ptype,
		Tags: tags,
	}

	p.Name = tags["Name"]
	if p.Name == "" {
		p.Name = p.ID
	}

	for _, field := range []string{"state", "instance_state", "db_instance_status", "resource_status"} {
		if s := a.tfString(field); s != "" {
			p.State = s
			break
		}
	}
	if p.State == "" {
		p.State = "unknown"
	}

	return p
}
