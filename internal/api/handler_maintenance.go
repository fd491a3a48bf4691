package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"

	"casino-maintenance-backend/internal/model"
	"casino-maintenance-backend/internal/store"
)

type createMaintenanceRequest struct {
	MachineID         int64   `json:"machine_id"`
	TechnicianID      int64   `json:"technician_id"`
	IssueDescription  string  `json:"issue_description"`
	RepairDescription *string `json:"repair_description"`
	IsResolved        bool    `json:"is_resolved"`
}

func (r createMaintenanceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MachineID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.TechnicianID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.IssueDescription, validation.Required),
	)
}

// ListMaintenanceRecords handles GET /maintenance-records/.
func (h *Handler) ListMaintenanceRecords(c *gin.Context) {
	page, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	records, err := h.store.ListMaintenanceRecords(c.Request.Context(), store.MaintenanceFilter{}, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(records, newMaintenanceResponse))
}

// CreateMaintenanceRecord handles POST /maintenance-records/.
func (h *Handler) CreateMaintenanceRecord(c *gin.Context) {
	req, err := bindCreate[createMaintenanceRequest](c)
	if err != nil {
		h.fail(c, err)
		return
	}

	r := model.NewMaintenanceRecord(model.MaintenanceInput{
		MachineID:         req.MachineID,
		TechnicianID:      req.TechnicianID,
		IssueDescription:  req.IssueDescription,
		RepairDescription: req.RepairDescription,
		IsResolved:        req.IsResolved,
	}, h.clock())
	if err := h.store.CreateMaintenanceRecord(c.Request.Context(), &r); err != nil {
		h.fail(c, err)
		return
	}
	h.logger.InfoContext(c.Request.Context(), "maintenance reported",
		slog.Int64("record_id", r.ID),
		slog.Int64("machine_id", r.MachineID),
		slog.Int64("technician_id", r.TechnicianID),
	)
	c.JSON(http.StatusCreated, newMaintenanceResponse(&r))
}

// GetMaintenanceRecord handles GET /maintenance-records/:record_id.
func (h *Handler) GetMaintenanceRecord(c *gin.Context) {
	id, err := idParam(c, "record_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	r, err := h.store.GetMaintenanceRecord(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newMaintenanceResponse(r))
}

// PatchMaintenanceRecord applies a partial update. Resolving or reopening a
// record moves resolved_time with it.
func (h *Handler) PatchMaintenanceRecord(c *gin.Context) {
	id, err := idParam(c, "record_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := bindPatch[model.MaintenancePatch](c)
	if err != nil {
		h.fail(c, err)
		return
	}
	r, err := h.store.UpdateMaintenanceRecord(c.Request.Context(), id, p, h.clock())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newMaintenanceResponse(r))
}
