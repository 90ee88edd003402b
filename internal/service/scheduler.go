package service

import (
	"sync"
	"time"
)

// Periodic calls fn every interval between Start and Stop. Each Start begins a
// fresh interval, so restarting also resets the phase.
type Periodic struct {
	interval time.Duration
	fn       func()

	mu   sync.Mutex
	done chan struct{}
}

// NewPeriodic creates a stopped schedule. Non-positive intervals fall back to
// one second.
func NewPeriodic(interval time.Duration, fn func()) *Periodic {
	if interval <= 0 {
		interval = time.Second
	}
	return &Periodic{interval: interval, fn: fn}
}

// Start begins ticking. A running schedule is restarted.
func (p *Periodic) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		close(p.done)
	}
	done := make(chan struct{})
	p.done = done
	ticker := time.NewTicker(p.interval)
	go p.loop(ticker, done)
}

// Stop halts ticking. Stopping a stopped schedule is a no-op.
func (p *Periodic) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		close(p.done)
		p.done = nil
	}
}

// Running reports whether the schedule is active
func (p *Periodic) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

func (p *Periodic) loop(ticker *time.Ticker, done chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			select {
			case <-done:
				return
			default:
			}
			p.fn()
		case <-done:
			return
		}
	}
}
