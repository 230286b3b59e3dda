package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/middleware"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	uid := middleware.CurrentUserID(c)
	if uid == "" {
		return "", apperrors.ErrUnauthorized
	}
	return uid, nil
}

// getActor returns the user loaded by the session guard.
func getActor(c *gin.Context) (*models.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseQueryID validates a UUID taken from the query string.
func parseQueryID(v string) (string, error) {
	return uuid.Parse(v)
}

func isoDate(v string) bool {
	return calendar.Valid(v)
}

// bindJSON binds the request body. Binding failures are reported as
// INVALID_INPUT by the error middleware.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		c.Abort()
		return false
	}
	return true
}

// bindQuery binds query parameters like bindJSON.
func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		c.Abort()
		return false
	}
	return true
}

// respondWithError hands err to middleware.ErrorHandler, which renders the
// JSON error body.
func respondWithError(c *gin.Context, err error) {
	middleware.Fail(c, err)
}
