// Package testutil provides an in-process bot server for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"botpanel/backend/pkg/panelapi"
)

// Push paths served by FakeBot
const (
	StatusWSPath    = "/ws/deriv/estado/"
	DashboardWSPath = "/ws/dashboard/"
)

// FakeBot serves canned JSON for every resource and accepts push channel
// connections it can write to
type FakeBot struct {
	Server *httptest.Server

	mu        sync.Mutex
	resources map[string]interface{}
	failing   map[string]bool
	peers     map[string][]*websocket.Conn
	hits      map[string]*atomic.Int32
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewFakeBot starts a server with a default operating-bot payload
func NewFakeBot() *FakeBot {
	b := &FakeBot{
		resources: map[string]interface{}{
			panelapi.PathBotStatus: map[string]interface{}{
				"estado":             "operando",
				"balance_actual":     "1000.00",
				"meta_actual":        "1100.00",
				"stop_loss_actual":   "900.00",
				"ganancia_acumulada": "20.00",
				"perdida_acumulada":  "5.00",
			},
			panelapi.PathWinrate:    map[string]interface{}{"total_operaciones": 10, "ganadas": 6, "winrate": 60},
			panelapi.PathBalance:    map[string]interface{}{"balance_actual": "1000.00", "meta_actual": "1100.00", "stop_loss_actual": "900.00"},
			panelapi.PathOperations: []interface{}{},
			panelapi.PathStatistics: map[string]interface{}{"ganadas_call": 3, "perdidas_call": 2, "ganadas_put": 3, "perdidas_put": 2},
			panelapi.PathTimer:      map[string]interface{}{"pausado": false},
			panelapi.PathSimulation: map[string]interface{}{"resumen": []interface{}{}, "operaciones": []interface{}{}},
		},
		failing: map[string]bool{},
		peers:   map[string][]*websocket.Conn{},
		hits:    map[string]*atomic.Int32{},
	}

	mux := http.NewServeMux()
	for path := range b.resources {
		path := path
		b.hits[path] = &atomic.Int32{}
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) { b.serveResource(path, w) })
	}
	for _, path := range []string{StatusWSPath, DashboardWSPath} {
		path := path
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) { b.servePush(path, w, r) })
	}
	b.Server = httptest.NewServer(mux)
	return b
}

// URL is the server origin
func (b *FakeBot) URL() string {
	return b.Server.URL
}

// Close shuts the server down
func (b *FakeBot) Close() {
	b.mu.Lock()
	for _, conns := range b.peers {
		for _, c := range conns {
			_ = c.Close()
		}
	}
	b.mu.Unlock()
	b.Server.Close()
}

// Set replaces the payload of a resource
func (b *FakeBot) Set(path string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resources[path] = payload
}

// Fail makes a resource answer 503
func (b *FakeBot) Fail(path string, failing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing[path] = failing
}

// Hits counts requests to a resource
func (b *FakeBot) Hits(path string) int {
	return int(b.hits[path].Load())
}

// Peers counts open push connections on path
func (b *FakeBot) Peers(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.peers[path])
}

// Push writes payload to every connection on path
func (b *FakeBot) Push(path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	conns := append([]*websocket.Conn(nil), b.peers[path]...)
	b.mu.Unlock()
	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			return err
		}
	}
	return nil
}

// DropPeers hangs up every connection on path
func (b *FakeBot) DropPeers(path string) {
	b.mu.Lock()
	conns := b.peers[path]
	b.peers[path] = nil
	b.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

func (b *FakeBot) serveResource(path string, w http.ResponseWriter) {
	b.hits[path].Add(1)
	b.mu.Lock()
	payload := b.resources[path]
	failing := b.failing[path]
	b.mu.Unlock()

	if failing {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (b *FakeBot) servePush(path string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.peers[path] = append(b.peers[path], conn)
	b.mu.Unlock()

	// drain until the client hangs up
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			b.remove(path, conn)
			return
		}
	}
}

func (b *FakeBot) remove(path string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	conns := b.peers[path]
	for i, c := range conns {
		if c == conn {
			b.peers[path] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
}
