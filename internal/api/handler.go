package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"casino-maintenance-backend/internal/auth"
	"casino-maintenance-backend/internal/metrics"
	"casino-maintenance-backend/internal/mw"
	"casino-maintenance-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	auth    *auth.Service
	metrics metrics.Recorder
	now     func() time.Time
	logger  *slog.Logger
}

// NewHandler creates a new API handler. A nil now uses time.Now and a nil
// recorder discards metrics.
func NewHandler(s store.Store, authSvc *auth.Service, rec metrics.Recorder, now func() time.Time, logger *slog.Logger) *Handler {
	if now == nil {
		now = time.Now
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:   s,
		auth:    authSvc,
		metrics: rec,
		now:     now,
		logger:  logger,
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	mw.AbortWithError(c, h.logger, err)
}

// clock returns the request time in UTC.
func (h *Handler) clock() time.Time {
	return h.now().UTC()
}
