package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/auth"
	"casino-maintenance-backend/internal/model"
	"casino-maintenance-backend/internal/mw"
)

type tokenRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func (r tokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// PostToken handles POST /token with form-encoded credentials.
func (h *Handler) PostToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, apperr.Wrap(err, apperr.KindValidationFailed, "Invalid form body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(c, apperr.Wrap(err, apperr.KindValidationFailed, err.Error()))
		return
	}

	tok, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperr.Unauthenticated("")) {
			h.metrics.RecordAuthFailure("bad_credentials")
			h.logger.InfoContext(c.Request.Context(), "login rejected",
				slog.String("username", req.Username),
				slog.String("client_ip", c.ClientIP()),
			)
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTokenResponse(tok, h.now()))
}

// PostUser handles registration. The new account is logged in immediately.
// Payload rules run inside Register, after normalisation.
func (h *Handler) PostUser(c *gin.Context) {
	req, err := bindJSON[auth.RegisterInput](c)
	if err != nil {
		h.fail(c, err)
		return
	}

	user, tok, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, registrationResponse{
		userResponse: newUserResponse(user),
		AccessToken:  tok.AccessToken,
		TokenType:    auth.TokenType,
	})
}

// GetMe returns the authenticated user.
func (h *Handler) GetMe(c *gin.Context) {
	user, ok := mw.CurrentUser(c)
	if !ok {
		h.fail(c, apperr.Unauthenticated(auth.MsgInvalidToken))
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// ListUsers handles GET /users/ for administrators.
func (h *Handler) ListUsers(c *gin.Context) {
	page, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	users, err := h.store.ListUsers(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(users, newUserResponse))
}

// PatchUser toggles is_active or is_admin on an account.
func (h *Handler) PatchUser(c *gin.Context) {
	id, err := idParam(c, "user_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := bindPatch[model.UserPatch](c)
	if err != nil {
		h.fail(c, err)
		return
	}

	// An administrator cannot lock themselves out.
	if current, ok := mw.CurrentUser(c); ok && current.ID == id {
		if (p.IsActive.Set && !p.IsActive.Value) || (p.IsAdmin.Set && !p.IsAdmin.Value) {
			h.fail(c, apperr.ValidationFailed("Administrators cannot deactivate or demote themselves"))
			return
		}
	}

	user, err := h.store.UpdateUser(c.Request.Context(), id, p, h.clock())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.InfoContext(c.Request.Context(), "user updated",
		slog.Int64("user_id", user.ID),
		slog.Bool("is_active", user.IsActive),
		slog.Bool("is_admin", user.IsAdmin),
	)
	c.JSON(http.StatusOK, newUserResponse(user))
}
