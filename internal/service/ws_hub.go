package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"botpanel/backend/internal/metrics"
	"botpanel/backend/internal/model"
	"botpanel/backend/internal/view"
	"botpanel/backend/pkg/logger"
	redisHelper "botpanel/backend/pkg/redis"
)

// Viewer represents a dashboard viewer connected over WebSocket
type Viewer struct {
	Hub  *WSHub
	Conn *websocket.Conn
	ID   string
	Send chan []byte
}

// WSHub streams view changes to connected viewers. Every viewer first gets a
// snapshot event; change events with a revision at or below the snapshot's
// revision are already contained in it.
type WSHub struct {
	viewers    map[*Viewer]bool
	register   chan *Viewer
	unregister chan *Viewer
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex

	snapshot func() view.Snapshot
	metrics  *metrics.Registry
	log      *logger.Logger
}

// NewWSHub creates a hub serving snapshots from snapshot
func NewWSHub(snapshot func() view.Snapshot, m *metrics.Registry) *WSHub {
	return &WSHub{
		viewers:    make(map[*Viewer]bool),
		register:   make(chan *Viewer),
		unregister: make(chan *Viewer),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		metrics:    m,
		log:        logger.GetLogger().Component("ws-hub"),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled
func (h *WSHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case viewer := <-h.register:
			// queued before any broadcast can reach the viewer
			if data, err := h.snapshotEvent(); err == nil {
				viewer.Send <- data
			} else {
				h.log.Errorf("Failed to marshal view snapshot: %v", err)
			}
			h.mu.Lock()
			h.viewers[viewer] = true
			h.mu.Unlock()
			h.metrics.AddViewers(1)
			h.log.Infof("Viewer connected: ID=%s", viewer.ID)

		case viewer := <-h.unregister:
			h.remove(viewer)

		case message := <-h.broadcast:
			h.mu.Lock()
			for viewer := range h.viewers {
				select {
				case viewer.Send <- message:
				default:
					// too slow to keep up, drop it
					close(viewer.Send)
					delete(h.viewers, viewer)
					h.metrics.AddViewers(-1)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for viewer := range h.viewers {
				close(viewer.Send)
				delete(h.viewers, viewer)
				h.metrics.AddViewers(-1)
			}
			h.mu.Unlock()
			return
		}
	}
}

// snapshotEvent encodes the current view. Changes still queued for broadcast
// carry revisions at or below it and are already contained in it.
func (h *WSHub) snapshotEvent() ([]byte, error) {
	return json.Marshal(model.ViewEvent{
		Type:    model.ViewEventSnapshot,
		Payload: h.snapshot(),
		SentAt:  time.Now(),
	})
}

func (h *WSHub) remove(viewer *Viewer) {
	h.mu.Lock()
	if _, ok := h.viewers[viewer]; ok {
		delete(h.viewers, viewer)
		close(viewer.Send)
		h.metrics.AddViewers(-1)
	}
	h.mu.Unlock()
	h.log.Infof("Viewer disconnected: ID=%s", viewer.ID)
}

// ViewerCount returns the number of connected viewers
func (h *WSHub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// BroadcastChange sends one change to every viewer
func (h *WSHub) BroadcastChange(c view.Change) {
	h.broadcastEvent(model.ViewEvent{
		Type:    model.ViewEventSlotChange,
		Payload: []view.Change{c},
		SentAt:  time.Now(),
	})
}

func (h *WSHub) broadcastEvent(event model.ViewEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Errorf("Failed to marshal view event: %v", err)
		return
	}
	h.broadcastRaw(data)
}

func (h *WSHub) broadcastRaw(data []byte) {
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// ReadPump drains viewer messages so control frames are processed
func (v *Viewer) ReadPump() {
	defer func() {
		select {
		case v.Hub.unregister <- v:
		case <-v.Hub.done:
		}
		v.Conn.Close()
	}()

	v.Conn.SetReadLimit(512)
	v.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	v.Conn.SetPongHandler(func(string) error {
		v.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := v.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				v.Hub.log.Errorf("WS error: %v", err)
			}
			break
		}
	}
}

// WritePump writes queued events and keeps the connection alive with pings
func (v *Viewer) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		v.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-v.Send:
			v.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				v.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// one event per frame so viewers can parse each message alone
			if err := v.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			v.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := v.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// StartPubSubListener relays change events published on a Redis channel to
// viewers. It returns when ctx is cancelled.
func (h *WSHub) StartPubSubListener(ctx context.Context, client *redisHelper.Client, channel string) {
	pubsub := client.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !json.Valid([]byte(msg.Payload)) {
				h.log.Warnf("Ignoring malformed payload on %s", msg.Channel)
				continue
			}
			h.broadcastRaw([]byte(msg.Payload))
		case <-ctx.Done():
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the view is read-only
	},
}

// ServeWS upgrades the request and streams the view to the new viewer
func (h *WSHub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorf("Failed to upgrade websocket: %v", err)
		return
	}

	viewer := &Viewer{
		Hub:  h,
		Conn: conn,
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
	}

	select {
	case h.register <- viewer:
	case <-h.done:
		conn.Close()
		return
	}

	go viewer.WritePump()
	go viewer.ReadPump()
}
