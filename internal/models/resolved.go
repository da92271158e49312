package models

import (
	"fmt"
	"strconv"
)

// ResolutionStatus distinguishes "no parent exists" from "lookup could not
// complete". Both render as orphaned=true in the canonical record, but the
// summary output reports them separately.
type ResolutionStatus int

const (
	// StatusResolved means the lookup chain produced a parent
	StatusResolved ResolutionStatus = iota

	// StatusOrphaned means the chain completed but yielded no parent
	StatusOrphaned

	// StatusFailed means a batch lookup covering this snapshot's key failed
	StatusFailed
)

// CostSentinel is emitted for both cost fields whenever size or price data
// is unavailable. It is never mixed with a numeric cost.
const CostSentinel = "prices_not_provided"

// Header is the fixed canonical output column order. Exporters must never
// reorder it.
var Header = []string{
	"snapshot_id",
	"snapshot_type",
	"creation_date",
	"size_gb",
	"parent_resource_type",
	"parent_resource_id",
	"parent_name",
	"parent_state",
	"account_id",
	"environment",
	"region",
	"orphaned",
	"age_days",
	"monthly_cost",
	"cost_since_creation",
}

// ResolvedSnapshot is the canonical output record: one per SnapshotRecord.
// Nil pointer fields render as empty (size) or as the cost sentinel.
type ResolvedSnapshot struct {
	SnapshotID         string
	SnapshotType       SnapshotKind
	CreationDate       string // RFC3339 UTC, "" when unparseable
	SizeGB             *float64
	ParentResourceType string
	ParentResourceID   string
	ParentName         string
	ParentState        string
	AccountID          string
	Environment        string
	Region             string
	Orphaned           bool
	AgeDays            int
	MonthlyCost        *float64
	TotalCost          *float64

	Status ResolutionStatus
}

// Row renders the record in the canonical column order.
func (r ResolvedSnapshot) Row() []string {
	return []string{
		r.SnapshotID,
		string(r.SnapshotType),
		r.CreationDate,
		formatSize(r.SizeGB),
		r.ParentResourceType,
		r.ParentResourceID,
		r.ParentName,
		r.ParentState,
		r.AccountID,
		r.Environment,
		r.Region,
		strconv.FormatBool(r.Orphaned),
		strconv.Itoa(r.AgeDays),
		formatCost(r.MonthlyCost),
		formatCost(r.TotalCost),
	}
}

func formatSize(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatCost(v *float64) string {
	if v == nil {
		return CostSentinel
	}
	return fmt.Sprintf("$%.4f", *v)
}
