package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/model"
)

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store. The *gorm.DB should be
// opened with TranslateError so constraint violations map to Conflict.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Ping performs a trivial round-trip to the database.
func (s *gormStore) Ping(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}

// --- Users ---

func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, &model.User{}, MsgUsernameTaken, "username = ?", u.Username); err != nil {
			return err
		}
		if err := ensureUnique(tx, &model.User{}, MsgEmailTaken, "LOWER(email) = LOWER(?)", u.Email); err != nil {
			return err
		}
		return tx.Create(u).Error
	})
	return translate(err)
}

func (s *gormStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, MsgUserNotFound)
	}
	return &u, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, notFound(err, MsgUserNotFound)
	}
	return &u, nil
}

func (s *gormStore) ListUsers(ctx context.Context, page Page) ([]model.User, error) {
	var users []model.User
	if err := paginate(s.db.WithContext(ctx), page).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *gormStore) UpdateUser(ctx context.Context, id int64, p model.UserPatch, now time.Time) (*model.User, error) {
	var out model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.User
		if err := tx.First(&current, id).Error; err != nil {
			return notFound(err, MsgUserNotFound)
		}
		next, err := p.Apply(current, now)
		if err != nil {
			return err
		}
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// --- Machines ---

func (s *gormStore) CreateMachine(ctx context.Context, m *model.Machine) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkMachine(tx, m, nil); err != nil {
			return err
		}
		return tx.Create(m).Error
	})
	return translate(err)
}

func (s *gormStore) GetMachine(ctx context.Context, machineNumber string) (*model.Machine, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).Where("machine_number = ?", machineNumber).First(&m).Error; err != nil {
		return nil, notFound(err, MsgMachineNotFound)
	}
	return &m, nil
}

func (s *gormStore) ListMachines(ctx context.Context, page Page) ([]model.Machine, error) {
	var machines []model.Machine
	if err := paginate(s.db.WithContext(ctx), page).Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

func (s *gormStore) UpdateMachine(ctx context.Context, machineNumber string, p model.MachinePatch, now time.Time) (*model.Machine, error) {
	var out model.Machine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Machine
		if err := tx.Where("machine_number = ?", machineNumber).First(&current).Error; err != nil {
			return notFound(err, MsgMachineNotFound)
		}
		next, err := p.Apply(current, now)
		if err != nil {
			return err
		}
		if err := checkMachine(tx, &next, &current); err != nil {
			return err
		}
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// checkMachine enforces uniqueness and the technician reference for m.
// prev is the stored version when m is an update of an existing row.
func checkMachine(tx *gorm.DB, m *model.Machine, prev *model.Machine) error {
	if prev == nil || prev.MachineNumber != m.MachineNumber {
		if err := ensureUnique(tx, &model.Machine{}, MsgMachineNumberTaken, "machine_number = ? AND id <> ?", m.MachineNumber, m.ID); err != nil {
			return err
		}
	}
	if m.SerialNumber != nil && (prev == nil || prev.SerialNumber == nil || *prev.SerialNumber != *m.SerialNumber) {
		if err := ensureUnique(tx, &model.Machine{}, MsgSerialNumberTaken, "serial_number = ? AND id <> ?", *m.SerialNumber, m.ID); err != nil {
			return err
		}
	}
	if m.TechnicianID != nil && (prev == nil || prev.TechnicianID == nil || *prev.TechnicianID != *m.TechnicianID) {
		ok, err := exists(tx, &model.Technician{}, "id = ?", *m.TechnicianID)
		if err != nil {
			return err
		}
		if !ok {
			return missingTechnician(*m.TechnicianID)
		}
	}
	return nil
}

// --- Technicians ---

func (s *gormStore) CreateTechnician(ctx context.Context, t *model.Technician) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, &model.Technician{}, MsgEmployeeIDTaken, "employee_id = ?", t.EmployeeID); err != nil {
			return err
		}
		return tx.Create(t).Error
	})
	return translate(err)
}

func (s *gormStore) GetTechnician(ctx context.Context, id int64) (*model.Technician, error) {
	var t model.Technician
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err, MsgTechnicianNotFound)
	}
	return &t, nil
}

func (s *gormStore) ListTechnicians(ctx context.Context, page Page) ([]model.Technician, error) {
	var techs []model.Technician
	if err := paginate(s.db.WithContext(ctx), page).Find(&techs).Error; err != nil {
		return nil, fmt.Errorf("failed to list technicians: %w", err)
	}
	return techs, nil
}

func (s *gormStore) UpdateTechnician(ctx context.Context, id int64, p model.TechnicianPatch, now time.Time) (*model.Technician, error) {
	var out model.Technician
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Technician
		if err := tx.First(&current, id).Error; err != nil {
			return notFound(err, MsgTechnicianNotFound)
		}
		next, err := p.Apply(current, now)
		if err != nil {
			return err
		}
		if next.EmployeeID != current.EmployeeID {
			if err := ensureUnique(tx, &model.Technician{}, MsgEmployeeIDTaken, "employee_id = ? AND id <> ?", next.EmployeeID, next.ID); err != nil {
				return err
			}
		}
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// --- Maintenance records ---

func (s *gormStore) CreateMaintenanceRecord(ctx context.Context, r *model.MaintenanceRecord) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkMaintenanceRefs(tx, r, nil); err != nil {
			return err
		}
		return tx.Create(r).Error
	})
	return translate(err)
}

func (s *gormStore) GetMaintenanceRecord(ctx context.Context, id int64) (*model.MaintenanceRecord, error) {
	var r model.MaintenanceRecord
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err, MsgMaintenanceNotFound)
	}
	return &r, nil
}

func (s *gormStore) ListMaintenanceRecords(ctx context.Context, filter MaintenanceFilter, page Page) ([]model.MaintenanceRecord, error) {
	q := s.db.WithContext(ctx)
	if filter.MachineID != nil {
		q = q.Where("machine_id = ?", *filter.MachineID)
	}
	var records []model.MaintenanceRecord
	if err := paginate(q, page).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list maintenance records: %w", err)
	}
	return records, nil
}

func (s *gormStore) UpdateMaintenanceRecord(ctx context.Context, id int64, p model.MaintenancePatch, now time.Time) (*model.MaintenanceRecord, error) {
	var out model.MaintenanceRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.MaintenanceRecord
		if err := tx.First(&current, id).Error; err != nil {
			return notFound(err, MsgMaintenanceNotFound)
		}
		next, err := p.Apply(current, now)
		if err != nil {
			return err
		}
		if err := checkMaintenanceRefs(tx, &next, &current); err != nil {
			return err
		}
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func checkMaintenanceRefs(tx *gorm.DB, r *model.MaintenanceRecord, prev *model.MaintenanceRecord) error {
	if prev == nil || prev.MachineID != r.MachineID {
		ok, err := exists(tx, &model.Machine{}, "id = ?", r.MachineID)
		if err != nil {
			return err
		}
		if !ok {
			return missingMachine(r.MachineID)
		}
	}
	if prev == nil || prev.TechnicianID != r.TechnicianID {
		ok, err := exists(tx, &model.Technician{}, "id = ?", r.TechnicianID)
		if err != nil {
			return err
		}
		if !ok {
			return missingTechnician(r.TechnicianID)
		}
	}
	return nil
}

// --- Helpers ---

func paginate(q *gorm.DB, page Page) *gorm.DB {
	page = page.normalized()
	return q.Order("id ASC").Offset(page.Skip).Limit(page.Limit)
}

func exists(tx *gorm.DB, m any, query string, args ...any) (bool, error) {
	var count int64
	if err := tx.Model(m).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("existence check failed: %w", err)
	}
	return count > 0, nil
}

func ensureUnique(tx *gorm.DB, m any, detail string, query string, args ...any) error {
	taken, err := exists(tx, m, query, args...)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict(detail)
	}
	return nil
}

func notFound(err error, detail string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(detail)
	}
	return err
}

// translate maps GORM's translated driver errors onto the error taxonomy.
// Errors already classified pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(err, apperr.KindConflict, MsgDuplicate)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Wrap(err, apperr.KindValidationFailed, "Referenced record does not exist")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(err, apperr.KindNotFound, "Record not found")
	}
	return err
}
