package middleware

import (
	"fmt"
	"runtime/debug"

	"botpanel/backend/internal/util"
	"botpanel/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panicking handler into a 500 response and logs the panic
// with its stack under the "http" component
func Recovery(log *logger.Logger) gin.HandlerFunc {
	log = log.Component("http")
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				requestID, _ := c.Get(RequestIDKey)
				log.WithFields(map[string]interface{}{
					"request_id": requestID,
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"stack":      string(debug.Stack()),
				}).Error("Panic recovered", fmt.Errorf("%v", rec))

				util.AbortWithError(c, util.ErrInternalServer("Internal server error"))
			}
		}()

		c.Next()
	}
}
