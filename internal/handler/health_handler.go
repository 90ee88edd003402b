package handler

import (
	"context"
	"net/http"
	"time"

	"botpanel/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Pinger is anything whose liveness can be checked, such as the Redis client
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	session *service.Session
	hub     *service.WSHub
	redis   Pinger
}

// NewHealthHandler builds the health endpoint. redis may be nil when the
// mirror is disabled.
func NewHealthHandler(session *service.Session, hub *service.WSHub, redis Pinger) *HealthHandler {
	return &HealthHandler{
		session: session,
		hub:     hub,
		redis:   redis,
	}
}

// Check handles GET /health. The bot server is probed through the balance
// resource, which the view itself never reads.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{
		"session":  h.session.ID,
		"uptime_s": int64(time.Since(h.session.StartedAt).Seconds()),
		"refresh":  h.session.Coordinator.Status(),
		"channels": h.session.Channels(),
		"viewers":  h.hub.ViewerCount(),
	}
	status := http.StatusOK
	body["status"] = "healthy"

	if summary, err := h.session.Probe(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["upstream"] = "unreachable"
		body["error"] = err.Error()
	} else {
		body["upstream"] = "reachable"
		body["balance"] = summary
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["redis"] = "disconnected"
		} else {
			body["redis"] = "connected"
		}
	}

	c.JSON(status, body)
}
