package model

import (
	"strings"
	"time"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/patch"
)

// Technician is a member of the slot floor maintenance staff.
type Technician struct {
	ID            int64     `gorm:"primaryKey"`
	EmployeeID    string    `gorm:"uniqueIndex;size:64;not null"`
	Name          string    `gorm:"size:128;not null"`
	ContactNumber *string   `gorm:"size:32"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false;not null"`
}

// Column widths, in runes, shared by create validation and patches.
const (
	MaxEmployeeIDLen    = 64
	MaxNameLen          = 128
	MaxContactNumberLen = 32
)

// TechnicianInput carries the caller-supplied fields of a new technician.
type TechnicianInput struct {
	EmployeeID    string
	Name          string
	ContactNumber *string
}

// NewTechnician builds a technician stamped with now.
func NewTechnician(in TechnicianInput, now time.Time) Technician {
	return Technician{
		EmployeeID:    strings.TrimSpace(in.EmployeeID),
		Name:          in.Name,
		ContactNumber: in.ContactNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TechnicianPatch is the closed set of technician fields a caller may change.
type TechnicianPatch struct {
	EmployeeID    patch.Field[string] `json:"employee_id"`
	Name          patch.Field[string] `json:"name"`
	ContactNumber patch.Field[string] `json:"contact_number"`
}

// Apply returns t with every present field of p written over it.
func (p TechnicianPatch) Apply(t Technician, now time.Time) (Technician, error) {
	if p.EmployeeID.Set {
		v := strings.TrimSpace(p.EmployeeID.Value)
		if p.EmployeeID.Null || v == "" {
			return t, apperr.ValidationFailed("employee_id cannot be empty")
		}
		if err := checkLength("employee_id", v, MaxEmployeeIDLen); err != nil {
			return t, err
		}
		t.EmployeeID = v
	}
	if p.Name.Set {
		if p.Name.Null || strings.TrimSpace(p.Name.Value) == "" {
			return t, apperr.ValidationFailed("name cannot be empty")
		}
		if err := checkLength("name", p.Name.Value, MaxNameLen); err != nil {
			return t, err
		}
		t.Name = p.Name.Value
	}
	if p.ContactNumber.Set {
		if p.ContactNumber.HasValue() {
			if err := checkLength("contact_number", p.ContactNumber.Value, MaxContactNumberLen); err != nil {
				return t, err
			}
		}
		t.ContactNumber = p.ContactNumber.Ptr()
	}
	t.UpdatedAt = now
	return t, nil
}
