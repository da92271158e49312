package inventory

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"snapcost/internal/models"
)

func TestAssetRegion(t *testing.T) {
	tests := []struct {
		name  string
		asset Asset
		want  string
	}{
		{"plain region", Asset{Region: "us-east-1"}, "us-east-1"},
		{"availability zone suffix", Asset{Region: "us-east-1a"}, "us-east-1"},
		{"zone suffix f", Asset{Region: "eu-west-2f"}, "eu-west-2"},
		{"no digit before letter keeps string", Asset{Region: "global"}, "global"},
		{"arn fallback", Asset{ARN: "arn:aws:ec2:ap-northeast-2:111122223333:snapshot/snap-1"}, "ap-northeast-2"},
		{"arn fallback with zone", Asset{ARN: "arn:aws:ec2:ap-northeast-2c:111122223333:volume/vol-1"}, "ap-northeast-2"},
		{"empty", Asset{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.asset.region(); got != tt.want {
				t.Errorf("region() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToSnapshotEBS(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Asset{
		AssetID:              "snap-1",
		ResourceID:           "snap-1",
		ProviderID:           "111122223333",
		Region:               "us-east-1a",
		ResourceCreationDate: created.Unix(),
		TagsList:             []Tag{{Key: "team", Value: "storage"}},
		TFObject: map[string]any{
			"storage_tier":                "archive",
			"full_snapshot_size_in_bytes": float64(5 << 30),
			"volume_size":                 float64(20),
			"volume_id":                   "vol-9",
			"tags":                        map[string]any{"env": "prod"},
		},
	}

	rec := a.ToSnapshot(models.KindEBS, zap.NewNop())

	if rec.ID != "snap-1" || rec.Kind != models.KindEBS {
		t.Errorf("identity: %+v", rec)
	}
	if rec.Region != "us-east-1" {
		t.Errorf("Region = %q, want zone suffix stripped", rec.Region)
	}
	if rec.CreatedAt == nil || !rec.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, created)
	}
	if rec.StorageTier != "archive" {
		t.Errorf("StorageTier = %q", rec.StorageTier)
	}
	if rec.FullSnapshotSizeBytes == nil || *rec.FullSnapshotSizeBytes != float64(5<<30) {
		t.Errorf("FullSnapshotSizeBytes = %v", rec.FullSnapshotSizeBytes)
	}
	if rec.VolumeSize == nil || *rec.VolumeSize != 20 {
		t.Errorf("VolumeSize = %v", rec.VolumeSize)
	}
	if rec.ForeignKey != "vol-9" {
		t.Errorf("ForeignKey = %q", rec.ForeignKey)
	}
	if rec.Tags["team"] != "storage" || rec.Tags["env"] != "prod" {
		t.Errorf("Tags = %v, want tagsList and tfObject tags merged", rec.Tags)
	}
}

func TestToSnapshotEBSVolumeIDFromARN(t *testing.T) {
	a := Asset{
		ResourceID: "snap-2",
		ARN:        "arn:aws:ec2:us-east-1:111122223333:volume/vol-deleted",
		TFObject:   map[string]any{},
	}
	rec := a.ToSnapshot(models.KindEBS, zap.NewNop())
	if rec.ForeignKey != "vol-deleted" {
		t.Errorf("ForeignKey = %q, want vol-deleted from ARN", rec.ForeignKey)
	}
}

func TestToSnapshotDB(t *testing.T) {
	a := Asset{
		ResourceID: "rds:mydb-2026-03-01",
		ProviderID: "111122223333",
		Region:     "eu-west-1",
		TFObject: map[string]any{
			"allocated_storage":      float64(100),
			"db_instance_identifier": "mydb",
		},
	}
	rec := a.ToSnapshot(models.KindDB, zap.NewNop())
	if rec.AllocatedStorage == nil || *rec.AllocatedStorage != 100 {
		t.Errorf("AllocatedStorage = %v", rec.AllocatedStorage)
	}
	if rec.ForeignKey != "mydb" {
		t.Errorf("ForeignKey = %q", rec.ForeignKey)
	}
	if rec.CreatedAt != nil {
		t.Errorf("CreatedAt = %v, want nil for missing date", rec.CreatedAt)
	}
}

func TestToVolume(t *testing.T) {
	tests := []struct {
		name string
		tf   map[string]any
		want string
	}{
		{
			"attached",
			map[string]any{"attachments": []any{map[string]any{"instance_id": "i-1"}}},
			"i-1",
		},
		{
			"first non empty attachment wins",
			map[string]any{"attachments": []any{
				map[string]any{"instance_id": ""},
				map[string]any{"instance_id": "i-2"},
			}},
			"i-2",
		},
		{"no attachments", map[string]any{}, ""},
		{"malformed attachments", map[string]any{"attachments": "oops"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := Asset{ResourceID: "vol-1", TFObject: tt.tf}.ToVolume()
			if vol.ID != "vol-1" {
				t.Errorf("ID = %q", vol.ID)
			}
			if vol.AttachedInstanceID != tt.want {
				t.Errorf("AttachedInstanceID = %q, want %q", vol.AttachedInstanceID, tt.want)
			}
		})
	}
}

func TestToParent(t *testing.T) {
	tests := []struct {
		name      string
		asset     Asset
		ptype     models.ParentType
		wantName  string
		wantState string
	}{
		{
			"ec2 with name tag and state",
			Asset{
				ResourceID: "i-1",
				TagsList:   []Tag{{Key: "Name", Value: "web-1"}},
				TFObject:   map[string]any{"instance_state": "running"},
			},
			models.ParentEC2Instance, "web-1", "running",
		},
		{
			"db status field",
			Asset{
				ResourceID: "mydb",
				TFObject:   map[string]any{"db_instance_status": "available"},
			},
			models.ParentDBInstance, "mydb", "available",
		},
		{
			"defaults",
			Asset{ResourceID: "i-2", TFObject: map[string]any{}},
			models.ParentEC2Instance, "i-2", "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.asset.ToParent(tt.ptype)
			if p.Type != tt.ptype {
				t.Errorf("Type = %q", p.Type)
			}
			if p.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name, tt.wantName)
			}
			if p.State != tt.wantState {
				t.Errorf("State = %q, want %q", p.State, tt.wantState)
			}
		})
	}
}
