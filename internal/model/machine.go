package model

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/patch"
)

// MachineStatus is the repair state of a gaming machine.
type MachineStatus string

const (
	StatusDown       MachineStatus = "down"
	StatusInProgress MachineStatus = "in_progress"
	StatusFixed      MachineStatus = "fixed"
)

// Column widths, in runes, shared by create validation and patches.
const (
	MaxMachineNumberLen = 64
	MaxSerialNumberLen  = 128
	MaxVendorLen        = 128
	MaxLocationLen      = 128
	MaxMachineTypeLen   = 64
)

// MachineStatuses lists every valid status in display order.
var MachineStatuses = []MachineStatus{StatusDown, StatusInProgress, StatusFixed}

// Valid reports whether s is one of the known statuses.
func (s MachineStatus) Valid() bool {
	switch s {
	case StatusDown, StatusInProgress, StatusFixed:
		return true
	}
	return false
}

// Machine represents a gaming machine on the casino floor.
type Machine struct {
	ID              int64         `gorm:"primaryKey"`
	MachineNumber   string        `gorm:"uniqueIndex;size:64;not null"`
	SerialNumber    *string       `gorm:"uniqueIndex;size:128"`
	Vendor          string        `gorm:"size:128;not null"`
	Location        string        `gorm:"size:128;not null"`
	MachineType     string        `gorm:"size:64;not null"`
	Status          MachineStatus `gorm:"size:16;not null;index"`
	Notes           *string
	CurrentIssue    *string
	DateDown        time.Time `gorm:"not null"`
	IsOutOfService  bool      `gorm:"not null"`
	VendorContacted bool      `gorm:"not null"`
	TechnicianID    *int64    `gorm:"index"`
	CreatedAt       time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false;not null"`

	// Associations
	Technician *Technician `gorm:"foreignKey:TechnicianID"`
}

// MachineInput carries the caller-supplied fields of a new machine.
type MachineInput struct {
	MachineNumber   string
	SerialNumber    *string
	Vendor          string
	Location        string
	MachineType     string
	Status          MachineStatus
	Notes           *string
	CurrentIssue    *string
	DateDown        *time.Time
	IsOutOfService  bool
	VendorContacted bool
	TechnicianID    *int64
}

// NewMachine builds a machine from in, filling defaults from now.
func NewMachine(in MachineInput, now time.Time) Machine {
	m := Machine{
		MachineNumber:   strings.TrimSpace(in.MachineNumber),
		SerialNumber:    in.SerialNumber,
		Vendor:          in.Vendor,
		Location:        in.Location,
		MachineType:     in.MachineType,
		Status:          in.Status,
		Notes:           in.Notes,
		CurrentIssue:    in.CurrentIssue,
		DateDown:        now,
		IsOutOfService:  in.IsOutOfService,
		VendorContacted: in.VendorContacted,
		TechnicianID:    in.TechnicianID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if m.Status == "" {
		m.Status = StatusDown
	}
	if in.DateDown != nil {
		m.DateDown = *in.DateDown
	}
	return m
}

// MachinePatch is the closed set of machine fields a caller may change.
type MachinePatch struct {
	MachineNumber   patch.Field[string]        `json:"machine_number"`
	SerialNumber    patch.Field[string]        `json:"serial_number"`
	Vendor          patch.Field[string]        `json:"vendor"`
	Location        patch.Field[string]        `json:"location"`
	MachineType     patch.Field[string]        `json:"machine_type"`
	Status          patch.Field[MachineStatus] `json:"status"`
	Notes           patch.Field[string]        `json:"notes"`
	CurrentIssue    patch.Field[string]        `json:"current_issue"`
	DateDown        patch.Field[time.Time]     `json:"date_down"`
	IsOutOfService  patch.Field[bool]          `json:"is_out_of_service"`
	VendorContacted patch.Field[bool]          `json:"vendor_contacted"`
	TechnicianID    patch.Field[int64]         `json:"technician_id"`
}

// Apply returns m with every present field of p written over it.
func (p MachinePatch) Apply(m Machine, now time.Time) (Machine, error) {
	if p.MachineNumber.Set {
		v := strings.TrimSpace(p.MachineNumber.Value)
		if p.MachineNumber.Null || v == "" {
			return m, apperr.ValidationFailed("machine_number cannot be empty")
		}
		if err := checkLength("machine_number", v, MaxMachineNumberLen); err != nil {
			return m, err
		}
		m.MachineNumber = v
	}
	if p.SerialNumber.Set {
		// A blank serial is stored as null, like on create.
		if p.SerialNumber.Null || strings.TrimSpace(p.SerialNumber.Value) == "" {
			m.SerialNumber = nil
		} else {
			if err := checkLength("serial_number", p.SerialNumber.Value, MaxSerialNumberLen); err != nil {
				return m, err
			}
			m.SerialNumber = p.SerialNumber.Ptr()
		}
	}
	if p.Vendor.Set && !p.Vendor.Null && strings.TrimSpace(p.Vendor.Value) == "" {
		return m, apperr.ValidationFailed("vendor cannot be empty")
	}
	if err := setString(&m.Vendor, p.Vendor, "vendor", MaxVendorLen); err != nil {
		return m, err
	}
	if err := setString(&m.Location, p.Location, "location", MaxLocationLen); err != nil {
		return m, err
	}
	if err := setString(&m.MachineType, p.MachineType, "machine_type", MaxMachineTypeLen); err != nil {
		return m, err
	}
	if p.Status.Set {
		if p.Status.Null || !p.Status.Value.Valid() {
			return m, apperr.ValidationFailed("status must be one of: down, in_progress, fixed")
		}
		m.Status = p.Status.Value
	}
	if p.Notes.Set {
		m.Notes = p.Notes.Ptr()
	}
	if p.CurrentIssue.Set {
		m.CurrentIssue = p.CurrentIssue.Ptr()
	}
	if p.DateDown.Set {
		if p.DateDown.Null {
			return m, apperr.ValidationFailed("date_down cannot be null")
		}
		m.DateDown = p.DateDown.Value
	}
	if err := setBool(&m.IsOutOfService, p.IsOutOfService, "is_out_of_service"); err != nil {
		return m, err
	}
	if err := setBool(&m.VendorContacted, p.VendorContacted, "vendor_contacted"); err != nil {
		return m, err
	}
	if p.TechnicianID.Set {
		m.TechnicianID = p.TechnicianID.Ptr()
	}
	m.UpdatedAt = now
	return m, nil
}

func setString(dst *string, f patch.Field[string], name string, max int) error {
	if !f.Set {
		return nil
	}
	if f.Null {
		return apperr.ValidationFailed(name + " cannot be null")
	}
	if err := checkLength(name, f.Value, max); err != nil {
		return err
	}
	*dst = f.Value
	return nil
}

// checkLength rejects v when it is longer than max runes.
func checkLength(name, v string, max int) error {
	if err := validation.Validate(v, validation.RuneLength(0, max)); err != nil {
		return apperr.ValidationFailed(fmt.Sprintf("%s must be at most %d characters", name, max))
	}
	return nil
}

func setBool(dst *bool, f patch.Field[bool], name string) error {
	if !f.Set {
		return nil
	}
	if f.Null {
		return apperr.ValidationFailed(name + " cannot be null")
	}
	*dst = f.Value
	return nil
}
