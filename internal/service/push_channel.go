package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"botpanel/backend/internal/metrics"
	"botpanel/backend/internal/util"
	"botpanel/backend/pkg/logger"
)

// Conn is the read side of a websocket connection
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens push connections
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

// Dial opens a websocket connection to url
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ReconnectPolicy yields the wait before each reconnect attempt
type ReconnectPolicy interface {
	Next() time.Duration
	Reset()
}

// FixedDelay waits the same delay before every attempt
type FixedDelay time.Duration

// Next returns the delay
func (d FixedDelay) Next() time.Duration { return time.Duration(d) }

// Reset is a no-op
func (d FixedDelay) Reset() {}

// ExponentialDelay doubles the wait after each failed attempt up to max and
// starts over once a connection opens
type ExponentialDelay struct {
	mu sync.Mutex
	b  *backoff.Backoff
}

// NewExponentialDelay creates a capped exponential policy starting at minDelay
func NewExponentialDelay(minDelay, maxDelay time.Duration) *ExponentialDelay {
	return &ExponentialDelay{b: &backoff.Backoff{Min: minDelay, Max: maxDelay, Factor: 2, Jitter: true}}
}

// Next returns the next delay
func (d *ExponentialDelay) Next() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.b.Duration()
}

// Reset starts over from the minimum delay
func (d *ExponentialDelay) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.b.Reset()
}

// Dispatcher handles one decoded push payload
type Dispatcher interface {
	Dispatch(payload []byte) error
}

// TimerHandle is the part of *time.Timer a scheduled reconnect needs
type TimerHandle interface {
	Stop() bool
}

// ChannelStatus describes a push channel for health output
type ChannelStatus struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Connected   bool      `json:"connected"`
	Reconnects  int       `json:"reconnects"`
	Messages    int       `json:"messages"`
	LastError   string    `json:"last_error,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitempty"`
}

// PushChannel keeps one websocket to the bot server open. Every closure,
// whether from a failed dial, a read error or the server hanging up, schedules
// exactly one reconnect; there is no attempt limit.
type PushChannel struct {
	name       string
	url        string
	dialer     Dialer
	policy     ReconnectPolicy
	dispatcher Dispatcher
	afterFunc  func(time.Duration, func()) TimerHandle
	metrics    *metrics.Registry
	log        *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	conn        Conn
	connected   bool
	closed      bool
	retry       TimerHandle
	reconnects  int
	messages    int
	lastErr     error
	connectedAt time.Time
}

// PushChannelOption customises a PushChannel
type PushChannelOption func(*PushChannel)

// WithDialer replaces the websocket dialer
func WithDialer(d Dialer) PushChannelOption {
	return func(p *PushChannel) { p.dialer = d }
}

// WithReconnectPolicy replaces the fixed reconnect delay
func WithReconnectPolicy(policy ReconnectPolicy) PushChannelOption {
	return func(p *PushChannel) { p.policy = policy }
}

// WithScheduler replaces time.AfterFunc for reconnect scheduling
func WithScheduler(fn func(time.Duration, func()) TimerHandle) PushChannelOption {
	return func(p *PushChannel) { p.afterFunc = fn }
}

// WithChannelMetrics records connection and message counters
func WithChannelMetrics(m *metrics.Registry) PushChannelOption {
	return func(p *PushChannel) { p.metrics = m }
}

// NewPushChannel creates a disconnected channel. Call Connect to open it.
func NewPushChannel(name, url string, dispatcher Dispatcher, log *logger.Logger, opts ...PushChannelOption) *PushChannel {
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &PushChannel{
		name:       name,
		url:        url,
		dialer:     WebsocketDialer{},
		policy:     FixedDelay(5 * time.Second),
		dispatcher: dispatcher,
		afterFunc: func(d time.Duration, f func()) TimerHandle {
			return time.AfterFunc(d, f)
		},
		log:    log.WithField("channel", name),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the channel name
func (p *PushChannel) Name() string {
	return p.name
}

// Connect dials the server. A failed dial is treated as a closure.
func (p *PushChannel) Connect() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.retry = nil
	p.mu.Unlock()

	conn, err := p.dialer.Dial(p.ctx, p.url)
	if err != nil {
		p.log.Error("Push channel connection failed", err)
		p.onClosed(util.ErrConnectionLost(p.name, err))
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = conn.Close()
		return
	}
	p.conn = conn
	p.connected = true
	p.connectedAt = time.Now()
	p.lastErr = nil
	p.policy.Reset()
	p.mu.Unlock()

	p.metrics.SetConnected(p.name, true)
	p.log.Infof("Connected to %s", p.url)

	go p.readPump(conn)
}

// Close stops the channel for good. Pending reconnects are cancelled.
func (p *PushChannel) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	conn := p.conn
	p.conn = nil
	p.connected = false
	if p.retry != nil {
		p.retry.Stop()
		p.retry = nil
	}
	p.mu.Unlock()

	p.cancel()
	if conn != nil {
		_ = conn.Close()
	}
	p.metrics.SetConnected(p.name, false)
	p.log.Info("Push channel closed")
}

// Status returns the connection state
func (p *PushChannel) Status() ChannelStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := ChannelStatus{
		Name:        p.name,
		URL:         p.url,
		Connected:   p.connected,
		Reconnects:  p.reconnects,
		Messages:    p.messages,
		ConnectedAt: p.connectedAt,
	}
	if p.lastErr != nil {
		st.LastError = p.lastErr.Error()
	}
	return st
}

func (p *PushChannel) readPump(conn Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				p.log.Warnf("Connection closed: code=%d, reason=%s", closeErr.Code, closeErr.Text)
			} else {
				p.log.Error("Push channel read failed", err)
			}
			// close explicitly so the server sees the hang-up
			_ = conn.Close()

			p.mu.Lock()
			if p.conn == conn {
				p.conn = nil
				p.connected = false
			}
			p.mu.Unlock()
			p.metrics.SetConnected(p.name, false)

			p.onClosed(util.ErrConnectionLost(p.name, err))
			return
		}
		p.handleMessage(message)
	}
}

func (p *PushChannel) handleMessage(message []byte) {
	p.mu.Lock()
	p.messages++
	p.mu.Unlock()

	if !json.Valid(message) {
		p.metrics.IncPushMessage(p.name, "malformed")
		p.log.Warnf("Dropping malformed message: %s", truncate(message, 120))
		return
	}
	if err := p.dispatcher.Dispatch(message); err != nil {
		p.metrics.IncPushMessage(p.name, "malformed")
		p.log.Error("Error processing push message", err)
		return
	}
	p.metrics.IncPushMessage(p.name, "ok")
}

// onClosed schedules the single reconnect owed for one closure
func (p *PushChannel) onClosed(cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastErr = cause
	if p.closed {
		return
	}
	delay := p.policy.Next()
	p.reconnects++
	p.retry = p.afterFunc(delay, p.Connect)

	p.metrics.IncReconnect(p.name)
	p.log.Warnf("Connection closed. Retrying in %s", delay)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

