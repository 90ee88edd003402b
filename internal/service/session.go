package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"botpanel/backend/internal/config"
	"botpanel/backend/internal/metrics"
	"botpanel/backend/internal/model"
	"botpanel/backend/internal/util"
	"botpanel/backend/internal/view"
	"botpanel/backend/pkg/logger"
	"botpanel/backend/pkg/panelapi"
)

// Upstream is the bot server as seen by a session
type Upstream interface {
	Fetcher
	GetBalance(ctx context.Context) (*model.BalanceSummary, error)
}

// Push channel names
const (
	StatusChannelName    = "status"
	DashboardChannelName = "dashboard"
)

// Session owns the whole synchronisation state for one bot server: the view,
// both push channels, the refresh coordinator and the periodic tasks.
type Session struct {
	ID        string
	StartedAt time.Time

	Renderer         *view.Renderer
	Reconciler       *Reconciler
	Coordinator      *Coordinator
	Timer            *TimerMachine
	Balance          *BalanceTracker
	StatusChannel    *PushChannel
	DashboardChannel *PushChannel

	upstream Upstream
	clock    *Periodic
	fallback *Periodic
	log      *logger.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewSession builds every component from cfg. Nothing runs until Start.
func NewSession(cfg *config.Config, upstream Upstream, m *metrics.Registry, log *logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	id := uuid.New().String()
	log = log.WithField("session_id", id)

	statusURL, err := panelapi.WebSocketURL(cfg.Upstream.BaseURL, cfg.Upstream.StatusWSPath)
	if err != nil {
		return nil, fmt.Errorf("status channel url: %w", err)
	}
	dashboardURL, err := panelapi.WebSocketURL(cfg.Upstream.BaseURL, cfg.Upstream.DashboardWSPath)
	if err != nil {
		return nil, fmt.Errorf("dashboard channel url: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		upstream: upstream,
		log:      log.Component("session"),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.Renderer = view.NewRenderer(view.DefaultLayout(), view.WithPulseDuration(cfg.Refresh.PulseDuration))
	s.Renderer.Subscribe(func(c view.Change) { m.IncSlotChange(string(c.Kind)) })

	s.Timer = NewTimerMachine(s.Renderer, cfg.Refresh.TickInterval)
	s.Balance = NewBalanceTracker()
	s.Reconciler = NewReconciler(s.Renderer, s.Timer, s.Balance)
	s.Coordinator = NewCoordinator(ctx, upstream, s.Reconciler.ApplyBatch, m, log)

	s.StatusChannel = NewPushChannel(StatusChannelName, statusURL, NewStatusDispatcher(s.Coordinator, log), log,
		WithReconnectPolicy(reconnectPolicy(cfg.Reconnect)),
		WithChannelMetrics(m),
	)
	s.DashboardChannel = NewPushChannel(DashboardChannelName, dashboardURL, NewDashboardDispatcher(s.Reconciler, log), log,
		WithReconnectPolicy(reconnectPolicy(cfg.Reconnect)),
		WithChannelMetrics(m),
	)

	s.clock = NewPeriodic(cfg.Refresh.TickInterval, s.Reconciler.StampNow)
	s.fallback = NewPeriodic(cfg.Refresh.FallbackInterval, s.Coordinator.RequestRefresh)
	return s, nil
}

// reconnectPolicy gives each channel its own policy state
func reconnectPolicy(cfg config.ReconnectConfig) ReconnectPolicy {
	if cfg.Policy == config.ReconnectPolicyBackoff {
		return NewExponentialDelay(cfg.Delay, cfg.MaxDelay)
	}
	return FixedDelay(cfg.Delay)
}

// Start opens both channels, starts the clock, runs the first refresh and
// starts the fallback refresh. Cancelling ctx stops the session.
func (s *Session) Start(ctx context.Context) {
	s.StartedAt = time.Now()
	s.log.Info("Starting panel session")

	go s.StatusChannel.Connect()
	go s.DashboardChannel.Connect()

	s.Reconciler.StampNow()
	s.clock.Start()

	s.Coordinator.RequestRefresh()
	s.fallback.Start()

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.ctx.Done():
		}
	}()
}

// Stop tears the session down. It is safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.fallback.Stop()
		s.clock.Stop()
		s.StatusChannel.Close()
		s.DashboardChannel.Close()
		s.cancel()
		s.Coordinator.Wait()
		s.Timer.Stop()
		s.log.Info("Panel session stopped")
	})
}

// Channels reports both push channels
func (s *Session) Channels() []ChannelStatus {
	return []ChannelStatus{s.StatusChannel.Status(), s.DashboardChannel.Status()}
}

// Probe checks that the bot server answers, using the balance resource
func (s *Session) Probe(ctx context.Context) (*model.BalanceSummary, error) {
	summary, err := s.upstream.GetBalance(ctx)
	if err != nil {
		return nil, util.ErrUpstreamUnavailable("bot server unreachable", err)
	}
	return summary, nil
}
