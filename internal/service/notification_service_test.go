package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botpanel/backend/internal/model"
	"botpanel/backend/internal/view"
)

type fakePublisher struct {
	mu         sync.Mutex
	published  map[string][]interface{}
	stored     map[string]interface{}
	ttls       map[string]time.Duration
	publishErr error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		published: map[string][]interface{}{},
		stored:    map[string]interface{}{},
		ttls:      map[string]time.Duration{},
	}
}

func (p *fakePublisher) PublishJSON(ctx context.Context, channel string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishErr != nil {
		return p.publishErr
	}
	p.published[channel] = append(p.published[channel], value)
	return nil
}

func (p *fakePublisher) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stored[key] = value
	p.ttls[key] = expiration
	return nil
}

func TestNotificationServiceFlushesBatch(t *testing.T) {
	r := newQuietRenderer()
	pub := newFakePublisher()
	ns := NewNotificationService(pub, r.Snapshot, "desk", time.Minute, time.Hour)
	defer ns.Stop()
	r.Subscribe(ns.NotifyChange)

	r.SetSlot(view.SlotBalance, "US$ 1,00")
	r.SetSlot(view.SlotGoal, "US$ 2,00")
	ns.flushChangeBatch()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.published["channel:view:desk"], 1)
	event := pub.published["channel:view:desk"][0].(model.ViewEvent)
	assert.Equal(t, model.ViewEventSlotChange, event.Type)
	assert.Len(t, event.Payload.([]view.Change), 2)

	snap, ok := pub.stored["view:desk:snapshot"].(view.Snapshot)
	require.True(t, ok)
	assert.Equal(t, "US$ 2,00", snap.Slots[view.SlotGoal].Text)
	assert.Equal(t, time.Minute, pub.ttls["view:desk:snapshot"])
}

func TestNotificationServiceSkipsEmptyBatch(t *testing.T) {
	r := newQuietRenderer()
	pub := newFakePublisher()
	ns := NewNotificationService(pub, r.Snapshot, "desk", time.Minute, time.Hour)
	defer ns.Stop()

	ns.flushChangeBatch()
	assert.Empty(t, pub.published)
	assert.Empty(t, pub.stored)
}

func TestNotificationServiceStopFlushes(t *testing.T) {
	r := newQuietRenderer()
	pub := newFakePublisher()
	ns := NewNotificationService(pub, r.Snapshot, "desk", time.Minute, time.Hour)
	r.Subscribe(ns.NotifyChange)

	r.SetSlot(view.SlotWinrate, "50,00")
	ns.Stop()
	ns.Stop()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.published[ns.Channel()], 1)
}

func TestNotificationServicePublishFailureStillMirrors(t *testing.T) {
	r := newQuietRenderer()
	pub := newFakePublisher()
	pub.publishErr = errors.New("READONLY")
	ns := NewNotificationService(pub, r.Snapshot, "desk", time.Minute, time.Hour)
	defer ns.Stop()

	ns.NotifyChange(view.Change{Slot: view.SlotGoal})
	ns.flushChangeBatch()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Contains(t, pub.stored, "view:desk:snapshot")
}
