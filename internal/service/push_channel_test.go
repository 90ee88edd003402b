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
	"botpanel/backend/pkg/logger"
)

// fakeConn delivers queued messages until the server side hangs up
type fakeConn struct {
	inbox  chan []byte
	done   chan struct{}
	once   sync.Once
	closes atomic.Int32
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbox: make(chan []byte, 16), done: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-c.inbox:
		return 1, msg, nil
	case <-c.done:
		return 0, nil, errors.New("connection reset by peer")
	}
}

func (c *fakeConn) Close() error {
	c.closes.Add(1)
	c.hangUp()
	return nil
}

func (c *fakeConn) hangUp() {
	c.once.Do(func() { close(c.done) })
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  bool
	dials int
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.fail {
		return nil, errors.New("dial tcp: connection refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type scheduled struct {
	delay time.Duration
	fn    func()
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduled
}

type fakeTimer struct{ stopped atomic.Bool }

func (t *fakeTimer) Stop() bool {
	t.stopped.Store(true)
	return true
}

func (s *fakeScheduler) after(d time.Duration, fn func()) TimerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduled{delay: d, fn: fn})
	return &fakeTimer{}
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeScheduler) get(i int) scheduled {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

type recordingDispatcher struct {
	mu       sync.Mutex
	payloads []string
}

func (d *recordingDispatcher) Dispatch(payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, string(payload))
	return nil
}

func (d *recordingDispatcher) received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.payloads...)
}

func newTestChannel(d Dispatcher) (*PushChannel, *fakeDialer, *fakeScheduler) {
	dialer := &fakeDialer{}
	sched := &fakeScheduler{}
	p := NewPushChannel("status", "ws://bot.local/ws/deriv/estado/", d, logger.Nop(),
		WithDialer(dialer),
		WithReconnectPolicy(FixedDelay(5*time.Second)),
		WithScheduler(sched.after),
	)
	return p, dialer, sched
}

func TestPushChannelReconnectsOncePerClosure(t *testing.T) {
	p, dialer, sched := newTestChannel(&recordingDispatcher{})
	defer p.Close()

	p.Connect()
	require.True(t, p.Status().Connected)

	for round := 1; round <= 3; round++ {
		dialer.last().hangUp()
		require.Eventually(t, func() bool { return sched.count() == round }, time.Second, time.Millisecond)
		assert.Equal(t, 5*time.Second, sched.get(round-1).delay)
		assert.False(t, p.Status().Connected)

		sched.get(round - 1).fn()
		assert.Equal(t, round+1, dialer.dialCount())
		assert.True(t, p.Status().Connected)
	}

	// nothing extra was scheduled along the way
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 3, sched.count())
	assert.Equal(t, 3, p.Status().Reconnects)
}

func TestPushChannelClosesConnectionOnError(t *testing.T) {
	p, dialer, sched := newTestChannel(&recordingDispatcher{})
	defer p.Close()

	p.Connect()
	conn := dialer.last()
	conn.hangUp()

	require.Eventually(t, func() bool { return sched.count() == 1 }, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, conn.closes.Load(), int32(1))
	assert.Contains(t, p.Status().LastError, "connection lost")
}

func TestPushChannelFailedDialSchedulesReconnect(t *testing.T) {
	p, dialer, sched := newTestChannel(&recordingDispatcher{})
	defer p.Close()
	dialer.fail = true

	p.Connect()
	require.Equal(t, 1, sched.count())
	assert.False(t, p.Status().Connected)

	sched.get(0).fn()
	assert.Equal(t, 2, sched.count())
}

func TestPushChannelDropsMalformedPayloads(t *testing.T) {
	rec := &recordingDispatcher{}
	p, dialer, sched := newTestChannel(rec)
	defer p.Close()

	p.Connect()
	conn := dialer.last()
	conn.inbox <- []byte("not json")
	conn.inbox <- []byte(`{"tipo":"info"}`)

	require.Eventually(t, func() bool { return len(rec.received()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{`{"tipo":"info"}`}, rec.received())
	assert.True(t, p.Status().Connected)
	assert.Equal(t, 0, sched.count())
	assert.Equal(t, 2, p.Status().Messages)
}

func TestPushChannelCloseStopsReconnecting(t *testing.T) {
	p, dialer, sched := newTestChannel(&recordingDispatcher{})

	p.Connect()
	conn := dialer.last()
	p.Close()

	<-conn.done
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0, sched.count())
	assert.False(t, p.Status().Connected)

	p.Connect()
	assert.Equal(t, 1, dialer.dialCount())
}

func TestPushChannelCloseCancelsPendingRetry(t *testing.T) {
	p, dialer, sched := newTestChannel(&recordingDispatcher{})
	dialer.fail = true

	p.Connect()
	require.Equal(t, 1, sched.count())
	p.mu.Lock()
	timer := p.retry.(*fakeTimer)
	p.mu.Unlock()

	p.Close()
	assert.True(t, timer.stopped.Load())
}

func TestExponentialDelayResets(t *testing.T) {
	policy := NewExponentialDelay(time.Second, 8*time.Second)

	first := policy.Next()
	policy.Next()
	policy.Next()
	capped := policy.Next()
	assert.LessOrEqual(t, capped, 8*time.Second)
	assert.LessOrEqual(t, first, 2*time.Second)

	policy.Reset()
	assert.LessOrEqual(t, policy.Next(), 2*time.Second)
}

type countingRefresher struct{ calls atomic.Int32 }

func (r *countingRefresher) RequestRefresh() { r.calls.Add(1) }

func TestStatusDispatcher(t *testing.T) {
	cases := []struct {
		payload string
		refresh bool
	}{
		{`{"tipo":"operacion","actualizar_panel":true}`, true},
		{`{"type":"trade","applyPanel":true}`, true},
		{`{"tipo":"operacion"}`, false},
		{`{"tipo":"error","mensaje":"boom","actualizar_panel":true}`, false},
		{`{"tipo":"info","actualizar_panel":true}`, true},
		{`{"tipo":"simulacion"}`, false},
		{`null`, false},
	}
	for _, tc := range cases {
		refresher := &countingRefresher{}
		d := NewStatusDispatcher(refresher, logger.Nop())
		require.NoError(t, d.Dispatch([]byte(tc.payload)), tc.payload)
		if tc.refresh {
			assert.Equal(t, int32(1), refresher.calls.Load(), tc.payload)
		} else {
			assert.Equal(t, int32(0), refresher.calls.Load(), tc.payload)
		}
	}
}

func TestStatusDispatcherRejectsNonObjects(t *testing.T) {
	d := NewStatusDispatcher(&countingRefresher{}, logger.Nop())
	assert.Error(t, d.Dispatch([]byte(`"hello"`)))
	assert.Error(t, d.Dispatch([]byte(`[1,2]`)))
}

type recordingApplier struct {
	msgs []model.DashboardMessage
}

func (a *recordingApplier) ApplyDashboard(msg model.DashboardMessage) {
	a.msgs = append(a.msgs, msg)
}

func TestDashboardDispatcher(t *testing.T) {
	applier := &recordingApplier{}
	d := NewDashboardDispatcher(applier, logger.Nop())

	require.NoError(t, d.Dispatch([]byte(`{"tipo":"conexion","mensaje":"hola"}`)))
	require.NoError(t, d.Dispatch([]byte(`{"tipo":"otro"}`)))
	assert.Empty(t, applier.msgs)

	require.NoError(t, d.Dispatch([]byte(`{"tipo":"actualizacion_completa","winrate":{"winrate":55}}`)))
	require.NoError(t, d.Dispatch([]byte(`{"type":"full-update"}`)))
	require.Len(t, applier.msgs, 2)
	require.NotNil(t, applier.msgs[0].Winrate)
	assert.Equal(t, 55.0, applier.msgs[0].Winrate.WinratePercent.Value)
}
