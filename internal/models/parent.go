package models

// ParentType identifies the kind of resource that owns a snapshot.
type ParentType string

const (
	// ParentEC2Instance is the owner of an EBS snapshot's source volume
	ParentEC2Instance ParentType = "ec2_instance"

	// ParentDBInstance is the owner of a DB snapshot
	ParentDBInstance ParentType = "db_instance"
)

// ParentRecord is the resolved owning resource of a snapshot.
type ParentRecord struct {
	ID    string
	Type  ParentType
	Name  string
	State string
	Tags  map[string]string
}

// VolumeRecord is the intermediate hop between an EBS snapshot and its
// owning EC2 instance. AttachedInstanceID is empty for detached volumes.
type VolumeRecord struct {
	ID                 string
	AttachedInstanceID string
}
