package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilRegistryIsSafe(t *testing.T) {
	var m *Registry
	assert.NotPanics(t, func() {
		m.ObserveRefresh("ok", time.Second)
		m.IncCoalesced()
		m.IncPushMessage("status", "dispatched")
		m.IncReconnect("status")
		m.SetConnected("status", true)
		m.IncSlotChange("text")
		m.AddViewers(1)
	})
}

func TestRegistryRecordsAndServes(t *testing.T) {
	m := New()
	m.ObserveRefresh("ok", 10*time.Millisecond)
	m.ObserveRefresh("failed", 10*time.Millisecond)
	m.IncReconnect("dashboard")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.True(t, strings.Contains(body, `botpanel_refresh_cycles_total{result="ok"} 1`))
	assert.True(t, strings.Contains(body, `botpanel_refresh_cycles_total{result="failed"} 1`))
	assert.True(t, strings.Contains(body, `botpanel_push_reconnects_total{channel="dashboard"} 1`))
}
