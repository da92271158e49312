package models

import "time"

// SnapshotKind identifies which lookup chain resolves a snapshot's parent.
type SnapshotKind string

const (
	// KindEBS is an EBS volume snapshot (resolved volume -> instance)
	KindEBS SnapshotKind = "ebs"

	// KindDB is an RDS/DB snapshot (resolved directly to a DB instance)
	KindDB SnapshotKind = "db"
)

// Storage tiers recognized for EBS snapshots
const (
	TierStandard = "standard"
	TierArchive  = "archive"
)

// SnapshotRecord is an immutable snapshot row fetched from the inventory API.
// Size-related fields are pointers because the API omits them for some
// snapshots; a nil pointer means the field was absent or malformed.
type SnapshotRecord struct {
	ID          string
	Kind        SnapshotKind
	CreatedAt   *time.Time
	StorageTier string // EBS only, "" when absent
	AccountID   string
	Region      string

	// Raw size fields, kind-dependent
	FullSnapshotSizeBytes *float64 // EBS, standard tier
	VolumeSize            *float64 // EBS, GB
	AllocatedStorage      *float64 // DB, GB

	// ForeignKey is the volume id (EBS) or db instance id (DB)
	ForeignKey string

	Tags map[string]string
}
