package store

import (
	"context"
	"time"

	"casino-maintenance-backend/internal/model"
)

// Store defines the persistence port for accounts and maintenance resources.
// Every method returns *apperr.Error values for NotFound, Conflict and
// ValidationFailed outcomes; anything else is an unclassified fault.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, page Page) ([]model.User, error)
	UpdateUser(ctx context.Context, id int64, p model.UserPatch, now time.Time) (*model.User, error)

	CreateMachine(ctx context.Context, m *model.Machine) error
	GetMachine(ctx context.Context, machineNumber string) (*model.Machine, error)
	ListMachines(ctx context.Context, page Page) ([]model.Machine, error)
	UpdateMachine(ctx context.Context, machineNumber string, p model.MachinePatch, now time.Time) (*model.Machine, error)

	CreateTechnician(ctx context.Context, t *model.Technician) error
	GetTechnician(ctx context.Context, id int64) (*model.Technician, error)
	ListTechnicians(ctx context.Context, page Page) ([]model.Technician, error)
	UpdateTechnician(ctx context.Context, id int64, p model.TechnicianPatch, now time.Time) (*model.Technician, error)

	CreateMaintenanceRecord(ctx context.Context, r *model.MaintenanceRecord) error
	GetMaintenanceRecord(ctx context.Context, id int64) (*model.MaintenanceRecord, error)
	ListMaintenanceRecords(ctx context.Context, filter MaintenanceFilter, page Page) ([]model.MaintenanceRecord, error)
	UpdateMaintenanceRecord(ctx context.Context, id int64, p model.MaintenancePatch, now time.Time) (*model.MaintenanceRecord, error)
}
