package middleware

import (
	"fmt"

	"users-server/apperrors"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error,
// unless a response was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		status, body := apperrors.Response(c.Errors.Last().Err)
		c.JSON(status, body)
	}
}

// Recovered renders a recovered panic as an internal error.
func Recovered(c *gin.Context, recovered any) {
	_ = c.Error(fmt.Errorf("panic: %v", recovered))
	status, body := apperrors.Response(apperrors.Internal())
	c.AbortWithStatusJSON(status, body)
}
