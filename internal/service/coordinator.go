package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"botpanel/backend/internal/metrics"
	"botpanel/backend/internal/model"
	"botpanel/backend/internal/util"
	"botpanel/backend/pkg/logger"
)

// Fetcher reads the dashboard resources from the bot server
type Fetcher interface {
	GetBotStatus(ctx context.Context) (*model.BotStatus, error)
	GetWinrate(ctx context.Context) (*model.WinrateSummary, error)
	GetStatistics(ctx context.Context) (*model.CallPutStatistics, error)
	GetTimer(ctx context.Context) (*model.TimerState, error)
	GetOperations(ctx context.Context) ([]model.Operation, error)
	GetSimulation(ctx context.Context) (*model.SimulationResults, error)
}

var errEmptyResource = errors.New("resource returned no data")

// Refresher is anything that can be asked for a refresh
type Refresher interface {
	RequestRefresh()
}

// Coordinator runs at most one refresh cycle at a time. Requests arriving
// while a cycle is in flight collapse into a single follow-up cycle.
type Coordinator struct {
	ctx     context.Context
	fetcher Fetcher
	apply   func(Batch)
	metrics *metrics.Registry
	log     *logger.Logger

	mu       sync.Mutex
	inFlight bool
	pending  bool
	wg       sync.WaitGroup

	lastMu   sync.RWMutex
	lastErr  error
	lastOKAt time.Time
	cycles   uint64
	failures uint64
}

// RefreshStatus summarises the coordinator for health output
type RefreshStatus struct {
	InFlight  bool      `json:"in_flight"`
	Pending   bool      `json:"pending"`
	Cycles    uint64    `json:"cycles"`
	Failures  uint64    `json:"failures"`
	LastOKAt  time.Time `json:"last_ok_at,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// NewCoordinator creates a coordinator whose cycles run under ctx and hand
// complete batches to apply
func NewCoordinator(ctx context.Context, fetcher Fetcher, apply func(Batch), m *metrics.Registry, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Coordinator{
		ctx:     ctx,
		fetcher: fetcher,
		apply:   apply,
		metrics: m,
		log:     log.Component("refresh"),
	}
}

// RequestRefresh starts a cycle, or marks one pending if a cycle is running.
// It never blocks.
func (c *Coordinator) RequestRefresh() {
	c.mu.Lock()
	if c.inFlight {
		c.pending = true
		c.mu.Unlock()
		c.metrics.IncCoalesced()
		return
	}
	c.inFlight = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run()
}

// Wait blocks until no cycle is running
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Status returns counters and the last outcome
func (c *Coordinator) Status() RefreshStatus {
	c.mu.Lock()
	st := RefreshStatus{InFlight: c.inFlight, Pending: c.pending}
	c.mu.Unlock()

	c.lastMu.RLock()
	defer c.lastMu.RUnlock()
	st.Cycles = c.cycles
	st.Failures = c.failures
	st.LastOKAt = c.lastOKAt
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

func (c *Coordinator) run() {
	defer c.wg.Done()
	for {
		c.cycle()

		c.mu.Lock()
		if !c.pending {
			c.inFlight = false
			c.mu.Unlock()
			return
		}
		c.pending = false
		c.mu.Unlock()
	}
}

// cycle fetches all six resources concurrently. A single failure discards the
// whole batch so the view never mixes old and new data from one cycle.
func (c *Coordinator) cycle() {
	start := time.Now()
	ctx := c.ctx

	var (
		b Batch
		g errgroup.Group
	)
	g.Go(func() (err error) {
		b.Status, err = c.fetcher.GetBotStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		b.Winrate, err = c.fetcher.GetWinrate(ctx)
		return err
	})
	g.Go(func() (err error) {
		b.Statistics, err = c.fetcher.GetStatistics(ctx)
		return err
	})
	g.Go(func() (err error) {
		b.Timer, err = c.fetcher.GetTimer(ctx)
		return err
	})
	g.Go(func() (err error) {
		b.Operations, err = c.fetcher.GetOperations(ctx)
		return err
	})
	g.Go(func() (err error) {
		b.Simulation, err = c.fetcher.GetSimulation(ctx)
		return err
	})

	err := g.Wait()
	if err == nil && (b.Status == nil || b.Winrate == nil || b.Statistics == nil || b.Timer == nil) {
		err = util.ErrMalformedMessage(errEmptyResource)
	}
	if err != nil {
		err = util.ErrUpstreamUnavailable("refresh failed", err)
		c.log.Error("Panel refresh failed", err)
		c.record(err)
		c.metrics.ObserveRefresh("error", time.Since(start))
		return
	}

	c.apply(b)
	c.record(nil)
	c.metrics.ObserveRefresh("ok", time.Since(start))
	c.log.Debugf("Panel refreshed in %s", time.Since(start))
}

func (c *Coordinator) record(err error) {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()
	c.cycles++
	c.lastErr = err
	if err != nil {
		c.failures++
	} else {
		c.lastOKAt = time.Now()
	}
}
