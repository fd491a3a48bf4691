package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"

	"casino-maintenance-backend/internal/model"
	"casino-maintenance-backend/internal/store"
)

type createMachineRequest struct {
	MachineNumber   string              `json:"machine_number"`
	SerialNumber    *string             `json:"serial_number"`
	Vendor          string              `json:"vendor"`
	Location        string              `json:"location"`
	MachineType     string              `json:"machine_type"`
	Status          model.MachineStatus `json:"status"`
	Notes           *string             `json:"notes"`
	CurrentIssue    *string             `json:"current_issue"`
	DateDown        *time.Time          `json:"date_down"`
	IsOutOfService  bool                `json:"is_out_of_service"`
	VendorContacted bool                `json:"vendor_contacted"`
	TechnicianID    *int64              `json:"technician_id"`
}

func (r createMachineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MachineNumber, validation.Required, validation.RuneLength(1, model.MaxMachineNumberLen)),
		validation.Field(&r.SerialNumber, validation.RuneLength(0, model.MaxSerialNumberLen)),
		validation.Field(&r.Vendor, validation.Required, validation.RuneLength(1, model.MaxVendorLen)),
		validation.Field(&r.Location, validation.RuneLength(0, model.MaxLocationLen)),
		validation.Field(&r.MachineType, validation.RuneLength(0, model.MaxMachineTypeLen)),
		validation.Field(&r.Status, validation.In(model.StatusDown, model.StatusInProgress, model.StatusFixed)),
		validation.Field(&r.TechnicianID, validation.Min(int64(1))),
	)
}

func (r createMachineRequest) input() model.MachineInput {
	serial := r.SerialNumber
	if serial != nil && strings.TrimSpace(*serial) == "" {
		serial = nil
	}
	return model.MachineInput{
		MachineNumber:   r.MachineNumber,
		SerialNumber:    serial,
		Vendor:          r.Vendor,
		Location:        r.Location,
		MachineType:     r.MachineType,
		Status:          r.Status,
		Notes:           r.Notes,
		CurrentIssue:    r.CurrentIssue,
		DateDown:        r.DateDown,
		IsOutOfService:  r.IsOutOfService,
		VendorContacted: r.VendorContacted,
		TechnicianID:    r.TechnicianID,
	}
}

// ListMachines handles GET /machines/.
func (h *Handler) ListMachines(c *gin.Context) {
	page, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	machines, err := h.store.ListMachines(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(machines, newMachineResponse))
}

// CreateMachine handles POST /machines/.
func (h *Handler) CreateMachine(c *gin.Context) {
	req, err := bindCreate[createMachineRequest](c)
	if err != nil {
		h.fail(c, err)
		return
	}

	m := model.NewMachine(req.input(), h.clock())
	if err := h.store.CreateMachine(c.Request.Context(), &m); err != nil {
		h.fail(c, err)
		return
	}
	h.logger.InfoContext(c.Request.Context(), "machine created",
		slog.Int64("machine_id", m.ID),
		slog.String("machine_number", m.MachineNumber),
	)
	c.JSON(http.StatusCreated, newMachineResponse(&m))
}

// GetMachine handles GET /machines/:machine_number.
func (h *Handler) GetMachine(c *gin.Context) {
	m, err := h.store.GetMachine(c.Request.Context(), c.Param("machine_number"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newMachineResponse(m))
}

// PatchMachine applies a partial update to one machine.
func (h *Handler) PatchMachine(c *gin.Context) {
	p, err := bindPatch[model.MachinePatch](c)
	if err != nil {
		h.fail(c, err)
		return
	}

	m, err := h.store.UpdateMachine(c.Request.Context(), c.Param("machine_number"), p, h.clock())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.InfoContext(c.Request.Context(), "machine updated",
		slog.String("machine_number", m.MachineNumber),
		slog.String("status", string(m.Status)),
	)
	c.JSON(http.StatusOK, newMachineResponse(m))
}

// GetMachineMaintenance lists the maintenance history of one machine.
func (h *Handler) GetMachineMaintenance(c *gin.Context) {
	page, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	m, err := h.store.GetMachine(c.Request.Context(), c.Param("machine_number"))
	if err != nil {
		h.fail(c, err)
		return
	}
	records, err := h.store.ListMaintenanceRecords(c.Request.Context(), store.MaintenanceFilter{MachineID: &m.ID}, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(records, newMaintenanceResponse))
}
