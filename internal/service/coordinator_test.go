package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botpanel/backend/internal/model"
	"botpanel/backend/internal/util"
	"botpanel/backend/pkg/logger"
)

type fakeFetcher struct {
	statusCalls atomic.Int32
	started     chan struct{}
	release     chan struct{}
	blockFirst  bool
	timerErr    error

	mu      sync.Mutex
	balance float64
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
		balance: 100,
	}
}

func (f *fakeFetcher) GetBotStatus(ctx context.Context) (*model.BotStatus, error) {
	n := f.statusCalls.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.blockFirst && n == 1 {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.BotStatus{State: "operando", CurrentBalance: model.NewNumber(f.balance)}, nil
}

func (f *fakeFetcher) GetWinrate(ctx context.Context) (*model.WinrateSummary, error) {
	return &model.WinrateSummary{}, nil
}

func (f *fakeFetcher) GetStatistics(ctx context.Context) (*model.CallPutStatistics, error) {
	return &model.CallPutStatistics{}, nil
}

func (f *fakeFetcher) GetTimer(ctx context.Context) (*model.TimerState, error) {
	if f.timerErr != nil {
		return nil, f.timerErr
	}
	return &model.TimerState{}, nil
}

func (f *fakeFetcher) GetOperations(ctx context.Context) ([]model.Operation, error) {
	return []model.Operation{}, nil
}

func (f *fakeFetcher) GetSimulation(ctx context.Context) (*model.SimulationResults, error) {
	return &model.SimulationResults{}, nil
}

type batchRecorder struct {
	mu      sync.Mutex
	batches []Batch
}

func (r *batchRecorder) apply(b Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
}

func (r *batchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestCoordinatorCoalescesRequests(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.blockFirst = true
	rec := &batchRecorder{}
	c := NewCoordinator(context.Background(), fetcher, rec.apply, nil, logger.Nop())

	c.RequestRefresh()
	<-fetcher.started
	assert.True(t, c.Status().InFlight)

	for i := 0; i < 5; i++ {
		c.RequestRefresh()
	}
	assert.True(t, c.Status().Pending)

	close(fetcher.release)
	c.Wait()

	assert.Equal(t, int32(2), fetcher.statusCalls.Load())
	assert.Equal(t, 2, rec.count())

	st := c.Status()
	assert.False(t, st.InFlight)
	assert.False(t, st.Pending)
	assert.Equal(t, uint64(2), st.Cycles)
}

func TestCoordinatorSingleRequestRunsOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	rec := &batchRecorder{}
	c := NewCoordinator(context.Background(), fetcher, rec.apply, nil, logger.Nop())

	c.RequestRefresh()
	c.Wait()

	assert.Equal(t, int32(1), fetcher.statusCalls.Load())
	assert.Equal(t, 1, rec.count())
}

func TestCoordinatorFailedCycleAppliesNothing(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.timerErr = errors.New("connection refused")
	rec := &batchRecorder{}
	c := NewCoordinator(context.Background(), fetcher, rec.apply, nil, logger.Nop())

	c.RequestRefresh()
	c.Wait()

	assert.Equal(t, 0, rec.count())
	st := c.Status()
	assert.Equal(t, uint64(1), st.Failures)
	assert.Contains(t, st.LastError, "connection refused")
	assert.False(t, st.InFlight)

	// the next request still runs
	fetcher.timerErr = nil
	c.RequestRefresh()
	c.Wait()
	assert.Equal(t, 1, rec.count())
}

func TestCoordinatorFailureIsUpstreamError(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.timerErr = errors.New("503")
	var got error
	c := NewCoordinator(context.Background(), fetcher, func(Batch) {}, nil, logger.Nop())

	c.RequestRefresh()
	c.Wait()

	c.lastMu.RLock()
	got = c.lastErr
	c.lastMu.RUnlock()
	require.Error(t, got)
	assert.True(t, util.HasCode(got, util.ErrCodeUpstreamUnavailable))
}

func TestCoordinatorFailureKeepsView(t *testing.T) {
	fetcher := newFakeFetcher()
	rec, r, timer := newTestReconciler()
	defer timer.Stop()
	c := NewCoordinator(context.Background(), fetcher, rec.ApplyBatch, nil, logger.Nop())

	c.RequestRefresh()
	c.Wait()
	before := r.Snapshot()

	fetcher.mu.Lock()
	fetcher.balance = 250
	fetcher.mu.Unlock()
	fetcher.timerErr = errors.New("timeout")

	c.RequestRefresh()
	c.Wait()

	after := r.Snapshot()
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, before.Slots, after.Slots)
}

func TestCoordinatorConcurrentRequests(t *testing.T) {
	fetcher := newFakeFetcher()
	rec := &batchRecorder{}
	c := NewCoordinator(context.Background(), fetcher, rec.apply, nil, logger.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RequestRefresh()
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return !c.Status().InFlight }, time.Second, time.Millisecond)
	c.Wait()
	// every request is served, but never by more cycles than requests
	assert.GreaterOrEqual(t, rec.count(), 1)
	assert.LessOrEqual(t, rec.count(), 50)
}
