package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the panel's Prometheus metrics. A nil *Registry is valid and
// records nothing.
type Registry struct {
	gatherer prometheus.Gatherer

	RefreshCycles    *prometheus.CounterVec
	RefreshCoalesced prometheus.Counter
	RefreshDuration  prometheus.Histogram

	PushMessages   *prometheus.CounterVec
	PushReconnects *prometheus.CounterVec
	PushConnected  *prometheus.GaugeVec

	SlotChanges *prometheus.CounterVec
	Viewers     prometheus.Gauge
}

// New registers every metric on a fresh registry
func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		gatherer: reg,

		RefreshCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botpanel_refresh_cycles_total",
				Help: "Refresh coordinator cycles by result",
			},
			[]string{"result"},
		),
		RefreshCoalesced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "botpanel_refresh_coalesced_total",
				Help: "Refresh requests folded into a pending trailing cycle",
			},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "botpanel_refresh_duration_seconds",
				Help:    "Duration of a refresh cycle including the six reads",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		PushMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botpanel_push_messages_total",
				Help: "Push channel messages by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		PushReconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botpanel_push_reconnects_total",
				Help: "Scheduled push channel reconnects",
			},
			[]string{"channel"},
		),
		PushConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "botpanel_push_connected",
				Help: "1 while the push channel is open",
			},
			[]string{"channel"},
		),
		SlotChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botpanel_slot_changes_total",
				Help: "Effective view writes by kind",
			},
			[]string{"kind"},
		),
		Viewers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "botpanel_viewers",
				Help: "Connected /ws/view clients",
			},
		),
	}

	reg.MustRegister(
		m.RefreshCycles, m.RefreshCoalesced, m.RefreshDuration,
		m.PushMessages, m.PushReconnects, m.PushConnected,
		m.SlotChanges, m.Viewers,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRefresh records one finished cycle
func (m *Registry) ObserveRefresh(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.RefreshCycles.WithLabelValues(result).Inc()
	m.RefreshDuration.Observe(took.Seconds())
}

// IncCoalesced records a request folded into the pending cycle
func (m *Registry) IncCoalesced() {
	if m == nil {
		return
	}
	m.RefreshCoalesced.Inc()
}

// IncPushMessage records a received push message
func (m *Registry) IncPushMessage(channel, outcome string) {
	if m == nil {
		return
	}
	m.PushMessages.WithLabelValues(channel, outcome).Inc()
}

// IncReconnect records a scheduled reconnect
func (m *Registry) IncReconnect(channel string) {
	if m == nil {
		return
	}
	m.PushReconnects.WithLabelValues(channel).Inc()
}

// SetConnected flips the connection gauge
func (m *Registry) SetConnected(channel string, connected bool) {
	if m == nil {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	m.PushConnected.WithLabelValues(channel).Set(v)
}

// IncSlotChange records an effective view write
func (m *Registry) IncSlotChange(kind string) {
	if m == nil {
		return
	}
	m.SlotChanges.WithLabelValues(kind).Inc()
}

// AddViewers moves the viewer gauge by delta
func (m *Registry) AddViewers(delta float64) {
	if m == nil {
		return
	}
	m.Viewers.Add(delta)
}
