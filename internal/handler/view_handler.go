package handler

import (
	"net/http"

	"botpanel/backend/internal/service"
	"botpanel/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ViewHandler struct {
	session *service.Session
	hub     *service.WSHub
}

func NewViewHandler(session *service.Session, hub *service.WSHub) *ViewHandler {
	return &ViewHandler{
		session: session,
		hub:     hub,
	}
}

// GetView handles GET /api/v1/view
func (h *ViewHandler) GetView(c *gin.Context) {
	util.SendSuccess(c, h.session.Renderer.Snapshot())
}

// GetSlot handles GET /api/v1/view/slots/:id
func (h *ViewHandler) GetSlot(c *gin.Context) {
	slot, ok := h.session.Renderer.Slot(c.Param("id"))
	if !ok {
		util.SendError(c, util.ErrNotFound("Slot not found"))
		return
	}
	util.SendSuccess(c, slot)
}

// GetTable handles GET /api/v1/view/tables/:id
func (h *ViewHandler) GetTable(c *gin.Context) {
	table, ok := h.session.Renderer.Table(c.Param("id"))
	if !ok {
		util.SendError(c, util.ErrNotFound("Table not found"))
		return
	}
	util.SendSuccess(c, table)
}

// GetTimer handles GET /api/v1/view/timer
func (h *ViewHandler) GetTimer(c *gin.Context) {
	util.SendSuccess(c, h.session.Timer.Snapshot())
}

// RequestRefresh handles POST /api/v1/refresh. The refresh runs in the
// background; concurrent requests collapse into at most one follow-up cycle.
func (h *ViewHandler) RequestRefresh(c *gin.Context) {
	h.session.Coordinator.RequestRefresh()
	c.JSON(http.StatusAccepted, util.Response{
		Success: true,
		Data:    h.session.Coordinator.Status(),
		Message: "Refresh requested",
	})
}

// GetChannels handles GET /api/v1/channels
func (h *ViewHandler) GetChannels(c *gin.Context) {
	util.SendSuccess(c, gin.H{
		"channels": h.session.Channels(),
		"viewers":  h.hub.ViewerCount(),
	})
}
