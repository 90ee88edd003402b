package middleware

import (
	"time"

	"botpanel/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the request ID
const RequestIDKey = "request_id"

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger middleware logs HTTP requests. Successful requests to quietPaths
// (health checks, metric scrapes) are logged at debug level.
func Logger(log *logger.Logger, quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}
	log = log.Component("http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Get request ID
		requestID, _ := c.Get(RequestIDKey)

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()

		// Log request
		logFields := map[string]interface{}{
			"request_id": requestID,
			"method":     method,
			"path":       path,
			"status":     statusCode,
			"latency_ms": latency.Milliseconds(),
			"ip":         clientIP,
			"user_agent": c.Request.UserAgent(),
		}

		if len(c.Errors) > 0 {
			logFields["errors"] = c.Errors.String()
		}

		// Log based on status code
		if statusCode >= 500 {
			log.WithFields(logFields).Error("Server error", nil)
		} else if statusCode >= 400 {
			log.WithFields(logFields).Warn("Client error")
		} else if quiet[path] {
			log.WithFields(logFields).Debugf("Request completed")
		} else {
			log.WithFields(logFields).Info("Request completed")
		}
	}
}

