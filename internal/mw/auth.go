package mw

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/auth"
	"casino-maintenance-backend/internal/metrics"
	"casino-maintenance-backend/internal/model"
)

const userContextKey = "casino.user"

// Resolver turns a bearer token into the user it belongs to.
type Resolver interface {
	Resolve(ctx context.Context, accessToken string) (*model.User, error)
}

// BearerAuth requires a valid "Authorization: Bearer <token>" header naming
// an active user, and stores that user on the context.
func BearerAuth(resolver Resolver, rec metrics.Recorder, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			rec.RecordAuthFailure("missing_token")
			AbortWithError(c, logger, apperr.Unauthenticated("Not authenticated"))
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, apperr.Forbidden("")):
				rec.RecordAuthFailure("inactive_user")
			case errors.Is(err, apperr.Unauthenticated("")):
				rec.RecordAuthFailure("invalid_token")
			}
			AbortWithError(c, logger, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// AdminRequired rejects users without is_admin. It must run after
// BearerAuth.
func AdminRequired(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			AbortWithError(c, logger, apperr.Unauthenticated("Not authenticated"))
			return
		}
		if !user.IsAdmin {
			AbortWithError(c, logger, apperr.Forbidden(auth.MsgNotEnoughPrivilege))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by BearerAuth.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
