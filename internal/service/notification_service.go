package service

import (
	"context"
	"sync"
	"time"

	"botpanel/backend/internal/model"
	"botpanel/backend/internal/view"
	"botpanel/backend/pkg/logger"
	"botpanel/backend/pkg/redis"
)

// ViewPublisher is the part of the Redis client used to fan out view changes
type ViewPublisher interface {
	PublishJSON(ctx context.Context, channel string, value interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// NotificationService publishes view changes to Redis for other processes and
// for the WebSocket hub, and mirrors the full snapshot under a TTL'd key
type NotificationService struct {
	redis       ViewPublisher
	snapshot    func() view.Snapshot
	channel     string
	snapshotKey string
	ttl         time.Duration
	log         *logger.Logger

	// Change batching
	changeBatch []view.Change
	batchMu     sync.Mutex
	batchTicker *time.Ticker
	batchStop   chan struct{}
	stopOnce    sync.Once
}

// NewNotificationService starts a flusher publishing batched changes every
// flushEvery
func NewNotificationService(publisher ViewPublisher, snapshot func() view.Snapshot, panel string, ttl, flushEvery time.Duration) *NotificationService {
	ns := &NotificationService{
		redis:       publisher,
		snapshot:    snapshot,
		channel:     redis.ViewChannel(panel),
		snapshotKey: redis.ViewSnapshotKey(panel),
		ttl:         ttl,
		log:         logger.GetLogger().Component("notifications"),
		batchTicker: time.NewTicker(flushEvery),
		batchStop:   make(chan struct{}),
	}

	// Start batch flusher
	go ns.startBatchFlusher()

	return ns
}

// Channel is the Redis channel changes are published on
func (s *NotificationService) Channel() string {
	return s.channel
}

// NotifyChange queues a change for the next flush. It never blocks on Redis.
func (s *NotificationService) NotifyChange(c view.Change) {
	s.batchMu.Lock()
	s.changeBatch = append(s.changeBatch, c)
	s.batchMu.Unlock()
}

// MirrorSnapshot writes the current view under the snapshot key
func (s *NotificationService) MirrorSnapshot(ctx context.Context) error {
	return s.redis.SetJSON(ctx, s.snapshotKey, s.snapshot(), s.ttl)
}

// startBatchFlusher periodically flushes the change batch
func (s *NotificationService) startBatchFlusher() {
	for {
		select {
		case <-s.batchTicker.C:
			s.flushChangeBatch()
		case <-s.batchStop:
			return
		}
	}
}

// flushChangeBatch publishes collected changes as one event and refreshes the
// mirrored snapshot
func (s *NotificationService) flushChangeBatch() {
	s.batchMu.Lock()
	if len(s.changeBatch) == 0 {
		s.batchMu.Unlock()
		return
	}
	changes := s.changeBatch
	s.changeBatch = nil
	s.batchMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	event := model.ViewEvent{
		Type:    model.ViewEventSlotChange,
		Payload: changes,
		SentAt:  time.Now(),
	}
	if err := s.redis.PublishJSON(ctx, s.channel, event); err != nil {
		s.log.Errorf("Failed to publish view changes to channel %s: %v", s.channel, err)
	}
	if err := s.MirrorSnapshot(ctx); err != nil {
		s.log.Errorf("Failed to mirror view snapshot to %s: %v", s.snapshotKey, err)
	}
	s.log.Debugf("Flushed view change batch: %d changes", len(changes))
}

// Stop stops the batch flusher and flushes any remaining changes
func (s *NotificationService) Stop() {
	s.stopOnce.Do(func() {
		s.batchTicker.Stop()
		close(s.batchStop)
		s.flushChangeBatch()
	})
}
