package mw

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-maintenance-backend/internal/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// AbortWithError translates err into a status code and error body and
// aborts the chain. Causes of internal errors are logged, never returned.
func AbortWithError(c *gin.Context, logger *slog.Logger, err error) {
	e := apperr.As(err)
	status := e.Status()

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("kind", string(e.Kind)),
			slog.Any("error", err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorBody{Detail: e.Detail, Code: string(e.Kind)})
}
