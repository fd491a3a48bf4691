package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/model"
)

// memoryStore is a process-local Store. A single RWMutex serialises writers,
// which gives every call the all-or-nothing behaviour of a transaction.
type memoryStore struct {
	mu sync.RWMutex

	users        map[int64]model.User
	machines     map[int64]model.Machine
	technicians  map[int64]model.Technician
	maintenance  map[int64]model.MaintenanceRecord
	nextUser     int64
	nextMachine  int64
	nextTech     int64
	nextMaintRec int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{
		users:       make(map[int64]model.User),
		machines:    make(map[int64]model.Machine),
		technicians: make(map[int64]model.Technician),
		maintenance: make(map[int64]model.MaintenanceRecord),
	}
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// --- Users ---

func (s *memoryStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return apperr.Conflict(MsgUsernameTaken)
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict(MsgEmailTaken)
		}
	}
	s.nextUser++
	u.ID = s.nextUser
	s.users[u.ID] = *u
	return nil
}

func (s *memoryStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperr.NotFound(MsgUserNotFound)
}

func (s *memoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound(MsgUserNotFound)
}

func (s *memoryStore) ListUsers(ctx context.Context, page Page) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.users, page), nil
}

func (s *memoryStore) UpdateUser(ctx context.Context, id int64, p model.UserPatch, now time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound(MsgUserNotFound)
	}
	next, err := p.Apply(current, now)
	if err != nil {
		return nil, err
	}
	s.users[id] = next
	return &next, nil
}

// --- Machines ---

func (s *memoryStore) CreateMachine(ctx context.Context, m *model.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMachine(m); err != nil {
		return err
	}
	s.nextMachine++
	m.ID = s.nextMachine
	s.machines[m.ID] = *m
	return nil
}

func (s *memoryStore) GetMachine(ctx context.Context, machineNumber string) (*model.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.machineByNumber(machineNumber)
	if !ok {
		return nil, apperr.NotFound(MsgMachineNotFound)
	}
	return &m, nil
}

func (s *memoryStore) ListMachines(ctx context.Context, page Page) ([]model.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.machines, page), nil
}

func (s *memoryStore) UpdateMachine(ctx context.Context, machineNumber string, p model.MachinePatch, now time.Time) (*model.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.machineByNumber(machineNumber)
	if !ok {
		return nil, apperr.NotFound(MsgMachineNotFound)
	}
	next, err := p.Apply(current, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkMachine(&next); err != nil {
		return nil, err
	}
	s.machines[next.ID] = next
	return &next, nil
}

func (s *memoryStore) machineByNumber(number string) (model.Machine, bool) {
	for _, m := range s.machines {
		if m.MachineNumber == number {
			return m, true
		}
	}
	return model.Machine{}, false
}

func (s *memoryStore) checkMachine(m *model.Machine) error {
	for id, other := range s.machines {
		if id == m.ID {
			continue
		}
		if other.MachineNumber == m.MachineNumber {
			return apperr.Conflict(MsgMachineNumberTaken)
		}
		if m.SerialNumber != nil && other.SerialNumber != nil && *other.SerialNumber == *m.SerialNumber {
			return apperr.Conflict(MsgSerialNumberTaken)
		}
	}
	if m.TechnicianID != nil {
		if _, ok := s.technicians[*m.TechnicianID]; !ok {
			return missingTechnician(*m.TechnicianID)
		}
	}
	return nil
}

// --- Technicians ---

func (s *memoryStore) CreateTechnician(ctx context.Context, t *model.Technician) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTechnician(t); err != nil {
		return err
	}
	s.nextTech++
	t.ID = s.nextTech
	s.technicians[t.ID] = *t
	return nil
}

func (s *memoryStore) GetTechnician(ctx context.Context, id int64) (*model.Technician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.technicians[id]
	if !ok {
		return nil, apperr.NotFound(MsgTechnicianNotFound)
	}
	return &t, nil
}

func (s *memoryStore) ListTechnicians(ctx context.Context, page Page) ([]model.Technician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.technicians, page), nil
}

func (s *memoryStore) UpdateTechnician(ctx context.Context, id int64, p model.TechnicianPatch, now time.Time) (*model.Technician, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.technicians[id]
	if !ok {
		return nil, apperr.NotFound(MsgTechnicianNotFound)
	}
	next, err := p.Apply(current, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkTechnician(&next); err != nil {
		return nil, err
	}
	s.technicians[id] = next
	return &next, nil
}

func (s *memoryStore) checkTechnician(t *model.Technician) error {
	for id, other := range s.technicians {
		if id != t.ID && other.EmployeeID == t.EmployeeID {
			return apperr.Conflict(MsgEmployeeIDTaken)
		}
	}
	return nil
}

// --- Maintenance records ---

func (s *memoryStore) CreateMaintenanceRecord(ctx context.Context, r *model.MaintenanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMaintenanceRefs(r); err != nil {
		return err
	}
	s.nextMaintRec++
	r.ID = s.nextMaintRec
	s.maintenance[r.ID] = *r
	return nil
}

func (s *memoryStore) GetMaintenanceRecord(ctx context.Context, id int64) (*model.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.maintenance[id]
	if !ok {
		return nil, apperr.NotFound(MsgMaintenanceNotFound)
	}
	return &r, nil
}

func (s *memoryStore) ListMaintenanceRecords(ctx context.Context, filter MaintenanceFilter, page Page) ([]model.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if filter.MachineID == nil {
		return window(s.maintenance, page), nil
	}
	matching := make(map[int64]model.MaintenanceRecord)
	for id, r := range s.maintenance {
		if r.MachineID == *filter.MachineID {
			matching[id] = r
		}
	}
	return window(matching, page), nil
}

func (s *memoryStore) UpdateMaintenanceRecord(ctx context.Context, id int64, p model.MaintenancePatch, now time.Time) (*model.MaintenanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.maintenance[id]
	if !ok {
		return nil, apperr.NotFound(MsgMaintenanceNotFound)
	}
	next, err := p.Apply(current, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkMaintenanceRefs(&next); err != nil {
		return nil, err
	}
	s.maintenance[id] = next
	return &next, nil
}

func (s *memoryStore) checkMaintenanceRefs(r *model.MaintenanceRecord) error {
	if _, ok := s.machines[r.MachineID]; !ok {
		return missingMachine(r.MachineID)
	}
	if _, ok := s.technicians[r.TechnicianID]; !ok {
		return missingTechnician(r.TechnicianID)
	}
	return nil
}

// window returns the page of rows in ascending id order.
func window[T any](rows map[int64]T, page Page) []T {
	page = page.normalized()
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, page.Limit)
	for i := page.Skip; i < len(ids) && len(out) < page.Limit; i++ {
		out = append(out, rows[ids[i]])
	}
	return out
}
