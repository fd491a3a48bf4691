package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"

	"casino-maintenance-backend/internal/model"
)

type createTechnicianRequest struct {
	EmployeeID    string  `json:"employee_id"`
	Name          string  `json:"name"`
	ContactNumber *string `json:"contact_number"`
}

func (r createTechnicianRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EmployeeID, validation.Required, validation.RuneLength(1, model.MaxEmployeeIDLen)),
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, model.MaxNameLen)),
		validation.Field(&r.ContactNumber, validation.RuneLength(0, model.MaxContactNumberLen)),
	)
}

// ListTechnicians handles GET /technicians/.
func (h *Handler) ListTechnicians(c *gin.Context) {
	page, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	techs, err := h.store.ListTechnicians(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(techs, newTechnicianResponse))
}

// CreateTechnician handles POST /technicians/.
func (h *Handler) CreateTechnician(c *gin.Context) {
	req, err := bindCreate[createTechnicianRequest](c)
	if err != nil {
		h.fail(c, err)
		return
	}

	t := model.NewTechnician(model.TechnicianInput{
		EmployeeID:    req.EmployeeID,
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
	}, h.clock())
	if err := h.store.CreateTechnician(c.Request.Context(), &t); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTechnicianResponse(&t))
}

// GetTechnician handles GET /technicians/:technician_id.
func (h *Handler) GetTechnician(c *gin.Context) {
	id, err := idParam(c, "technician_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	t, err := h.store.GetTechnician(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTechnicianResponse(t))
}

// PatchTechnician applies a partial update to one technician.
func (h *Handler) PatchTechnician(c *gin.Context) {
	id, err := idParam(c, "technician_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := bindPatch[model.TechnicianPatch](c)
	if err != nil {
		h.fail(c, err)
		return
	}
	t, err := h.store.UpdateTechnician(c.Request.Context(), id, p, h.clock())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTechnicianResponse(t))
}
