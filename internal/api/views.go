package api

import (
	"time"

	"casino-maintenance-backend/internal/auth"
	"casino-maintenance-backend/internal/model"
)

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsActive: u.IsActive,
		IsAdmin:  u.IsAdmin,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func newTokenResponse(tok auth.Token, now time.Time) tokenResponse {
	return tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   auth.TokenType,
		ExpiresIn:   int64(tok.ExpiresAt.Sub(now).Seconds()),
	}
}

// registrationResponse is the new user bundled with its first token.
type registrationResponse struct {
	userResponse
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type machineResponse struct {
	ID              int64               `json:"id"`
	MachineNumber   string              `json:"machine_number"`
	SerialNumber    *string             `json:"serial_number"`
	Vendor          string              `json:"vendor"`
	Location        string              `json:"location"`
	MachineType     string              `json:"machine_type"`
	Status          model.MachineStatus `json:"status"`
	Notes           *string             `json:"notes"`
	CurrentIssue    *string             `json:"current_issue"`
	DateDown        time.Time           `json:"date_down"`
	IsOutOfService  bool                `json:"is_out_of_service"`
	VendorContacted bool                `json:"vendor_contacted"`
	TechnicianID    *int64              `json:"technician_id"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func newMachineResponse(m *model.Machine) machineResponse {
	return machineResponse{
		ID:              m.ID,
		MachineNumber:   m.MachineNumber,
		SerialNumber:    m.SerialNumber,
		Vendor:          m.Vendor,
		Location:        m.Location,
		MachineType:     m.MachineType,
		Status:          m.Status,
		Notes:           m.Notes,
		CurrentIssue:    m.CurrentIssue,
		DateDown:        m.DateDown.UTC(),
		IsOutOfService:  m.IsOutOfService,
		VendorContacted: m.VendorContacted,
		TechnicianID:    m.TechnicianID,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type technicianResponse struct {
	ID            int64     `json:"id"`
	EmployeeID    string    `json:"employee_id"`
	Name          string    `json:"name"`
	ContactNumber *string   `json:"contact_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newTechnicianResponse(t *model.Technician) technicianResponse {
	return technicianResponse{
		ID:            t.ID,
		EmployeeID:    t.EmployeeID,
		Name:          t.Name,
		ContactNumber: t.ContactNumber,
		CreatedAt:     t.CreatedAt.UTC(),
		UpdatedAt:     t.UpdatedAt.UTC(),
	}
}

type maintenanceResponse struct {
	ID                int64      `json:"id"`
	MachineID         int64      `json:"machine_id"`
	TechnicianID      int64      `json:"technician_id"`
	IssueDescription  string     `json:"issue_description"`
	RepairDescription *string    `json:"repair_description"`
	IsResolved        bool       `json:"is_resolved"`
	ReportedTime      time.Time  `json:"reported_time"`
	ResolvedTime      *time.Time `json:"resolved_time"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func newMaintenanceResponse(r *model.MaintenanceRecord) maintenanceResponse {
	resp := maintenanceResponse{
		ID:                r.ID,
		MachineID:         r.MachineID,
		TechnicianID:      r.TechnicianID,
		IssueDescription:  r.IssueDescription,
		RepairDescription: r.RepairDescription,
		IsResolved:        r.IsResolved,
		ReportedTime:      r.ReportedTime.UTC(),
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
	if r.ResolvedTime != nil {
		t := r.ResolvedTime.UTC()
		resp.ResolvedTime = &t
	}
	return resp
}

// mapSlice projects every element of in with f.
func mapSlice[T, R any](in []T, f func(*T) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, f(&in[i]))
	}
	return out
}
