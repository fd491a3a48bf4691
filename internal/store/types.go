package store

import (
	"fmt"

	"casino-maintenance-backend/internal/apperr"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is an offset window over a listing ordered by ascending id.
type Page struct {
	Skip  int
	Limit int
}

// NewPage validates a caller-supplied skip and limit.
func NewPage(skip, limit int) (Page, error) {
	if skip < 0 {
		return Page{}, apperr.ValidationFailed("skip must be zero or greater")
	}
	if limit < 1 || limit > MaxLimit {
		return Page{}, apperr.ValidationFailed(fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	}
	return Page{Skip: skip, Limit: limit}, nil
}

func (p Page) normalized() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}
	return p
}

// MaintenanceFilter narrows a maintenance listing.
type MaintenanceFilter struct {
	MachineID *int64
}

const (
	MsgUserNotFound        = "User not found"
	MsgMachineNotFound     = "Machine not found"
	MsgTechnicianNotFound  = "Technician not found"
	MsgMaintenanceNotFound = "Maintenance record not found"

	MsgUsernameTaken      = "Username already registered"
	MsgEmailTaken         = "Email already registered"
	MsgMachineNumberTaken = "Machine number already exists"
	MsgSerialNumberTaken  = "Serial number already exists"
	MsgEmployeeIDTaken    = "Employee ID already exists"
	MsgDuplicate          = "Record already exists"
)

func missingTechnician(id int64) error {
	return apperr.ValidationFailed(fmt.Sprintf("Technician %d does not exist", id))
}

func missingMachine(id int64) error {
	return apperr.ValidationFailed(fmt.Sprintf("Machine %d does not exist", id))
}
