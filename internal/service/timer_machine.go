package service

import (
	"sync"
	"time"

	"botpanel/backend/internal/format"
	"botpanel/backend/internal/model"
	"botpanel/backend/internal/view"
)

// TimerMachine keeps the pause countdown moving between authoritative timer
// updates. While paused it advances elapsed and remaining seconds once per
// tick; every Apply replaces the local state wholesale.
type TimerMachine struct {
	renderer *view.Renderer
	interval time.Duration

	mu           sync.Mutex
	paused       bool
	elapsed      *int64
	remaining    *int64
	reactivation time.Time
	hasReactAt   bool
	gen          uint64
	ticker       *Periodic
	stopped      bool
}

// NewTimerMachine creates an idle machine ticking every interval while paused
func NewTimerMachine(renderer *view.Renderer, interval time.Duration) *TimerMachine {
	if interval <= 0 {
		interval = time.Second
	}
	return &TimerMachine{renderer: renderer, interval: interval}
}

// TimerSnapshot is the local countdown state
type TimerSnapshot struct {
	Paused    bool   `json:"paused"`
	Elapsed   *int64 `json:"elapsed_seconds"`
	Remaining *int64 `json:"remaining_seconds"`
	Ticking   bool   `json:"ticking"`
}

// Apply adopts state and renders it inside the caller's batch
func (m *TimerMachine) Apply(w *view.Writer, state model.TimerState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.stopTickLocked()

	m.paused = state.Paused
	m.elapsed = state.PauseElapsedSeconds.Ptr()
	m.remaining = state.RemainingSeconds.Ptr()
	m.reactivation, m.hasReactAt = state.ReactivationInstant.Time()

	if !m.paused {
		m.renderLocked(w)
		return
	}

	if m.elapsed == nil {
		zero := int64(0)
		m.elapsed = &zero
	}
	m.renderLocked(w)
	if m.stopped {
		return
	}

	gen := m.gen
	m.ticker = NewPeriodic(m.interval, func() { m.tick(gen) })
	m.ticker.Start()
}

// Snapshot returns the local state
func (m *TimerMachine) Snapshot() TimerSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return TimerSnapshot{
		Paused:    m.paused,
		Elapsed:   copyInt64(m.elapsed),
		Remaining: copyInt64(m.remaining),
		Ticking:   m.ticker != nil,
	}
}

// Stop halts the countdown for good without touching the rendered values.
// Later Applies still render but never tick.
func (m *TimerMachine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.gen++
	m.stopTickLocked()
}

func (m *TimerMachine) tick(gen uint64) {
	m.renderer.Update(func(w *view.Writer) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.gen {
			return
		}
		m.advanceLocked(w)
	})
}

func (m *TimerMachine) advanceLocked(w *view.Writer) {
	if !m.paused {
		m.stopTickLocked()
		return
	}
	if m.elapsed != nil {
		*m.elapsed++
	}
	if m.remaining != nil && *m.remaining > 0 {
		*m.remaining--
	}
	m.renderLocked(w)
}

func (m *TimerMachine) renderLocked(w *view.Writer) {
	if !m.paused {
		w.SetSlot(view.SlotPausedFor, format.Placeholder)
		w.SetSlot(view.SlotReactivationAt, format.Placeholder)
		w.SetSlot(view.SlotRemaining, format.Placeholder)
		return
	}

	w.SetSlot(view.SlotPausedFor, format.Duration(m.elapsed))
	if m.hasReactAt {
		w.SetSlot(view.SlotReactivationAt, format.Instant(m.reactivation))
	} else {
		w.SetSlot(view.SlotReactivationAt, format.Placeholder)
	}
	w.SetSlot(view.SlotRemaining, format.Duration(m.remaining))
}

func (m *TimerMachine) stopTickLocked() {
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
