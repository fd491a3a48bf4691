package model

import (
	"strings"
	"time"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/patch"
)

// MaintenanceRecord is one reported issue on a machine and its repair.
// ResolvedTime is non-nil exactly when IsResolved is true.
type MaintenanceRecord struct {
	ID                int64  `gorm:"primaryKey"`
	MachineID         int64  `gorm:"index;not null"`
	TechnicianID      int64  `gorm:"index;not null"`
	IssueDescription  string `gorm:"not null"`
	RepairDescription *string
	IsResolved        bool      `gorm:"not null;index"`
	ReportedTime      time.Time `gorm:"not null"`
	ResolvedTime      *time.Time
	CreatedAt         time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false;not null"`

	// Associations
	Machine    *Machine    `gorm:"foreignKey:MachineID"`
	Technician *Technician `gorm:"foreignKey:TechnicianID"`
}

// MaintenanceInput carries the caller-supplied fields of a new record.
type MaintenanceInput struct {
	MachineID         int64
	TechnicianID      int64
	IssueDescription  string
	RepairDescription *string
	IsResolved        bool
}

// NewMaintenanceRecord builds a record reported at now. A record created
// already resolved is resolved at now as well.
func NewMaintenanceRecord(in MaintenanceInput, now time.Time) MaintenanceRecord {
	r := MaintenanceRecord{
		MachineID:         in.MachineID,
		TechnicianID:      in.TechnicianID,
		IssueDescription:  in.IssueDescription,
		RepairDescription: in.RepairDescription,
		ReportedTime:      now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.setResolved(in.IsResolved, now)
	return r
}

func (r *MaintenanceRecord) setResolved(resolved bool, now time.Time) {
	switch {
	case resolved && !r.IsResolved:
		t := now
		r.ResolvedTime = &t
	case !resolved:
		r.ResolvedTime = nil
	}
	r.IsResolved = resolved
}

// MaintenancePatch is the closed set of record fields a caller may change.
// resolved_time is derived from is_resolved and cannot be set directly.
type MaintenancePatch struct {
	TechnicianID      patch.Field[int64]  `json:"technician_id"`
	IssueDescription  patch.Field[string] `json:"issue_description"`
	RepairDescription patch.Field[string] `json:"repair_description"`
	IsResolved        patch.Field[bool]   `json:"is_resolved"`
}

// Apply returns r with every present field of p written over it.
func (p MaintenancePatch) Apply(r MaintenanceRecord, now time.Time) (MaintenanceRecord, error) {
	if p.TechnicianID.Set {
		if p.TechnicianID.Null {
			return r, apperr.ValidationFailed("technician_id cannot be null")
		}
		r.TechnicianID = p.TechnicianID.Value
	}
	if p.IssueDescription.Set {
		if p.IssueDescription.Null || strings.TrimSpace(p.IssueDescription.Value) == "" {
			return r, apperr.ValidationFailed("issue_description cannot be empty")
		}
		r.IssueDescription = p.IssueDescription.Value
	}
	if p.RepairDescription.Set {
		r.RepairDescription = p.RepairDescription.Ptr()
	}
	if p.IsResolved.Set {
		if p.IsResolved.Null {
			return r, apperr.ValidationFailed("is_resolved cannot be null")
		}
		r.setResolved(p.IsResolved.Value, now)
	}
	r.UpdatedAt = now
	return r, nil
}
