package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
)

// ErrorHandler renders the last error pushed with c.Error as the API error
// body {"error":{"code","message"}}. AppErrors keep their status, code and
// message, binding errors become INVALID_INPUT and anything else is logged
// and reported as INTERNAL_ERROR. Handlers that already wrote a response are
// left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		appErr := asAppError(last)
		if appErr.Internal != nil {
			logger.Get().Errorw("request failed",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"request_id", RequestID(c),
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}

// Fail records err for ErrorHandler and stops the handler chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func asAppError(e *gin.Error) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch {
	case errors.As(e.Err, &appErr):
		return appErr
	case e.IsType(gin.ErrorTypeBind):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, e.Err.Error())
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, e.Err)
	}
}
