package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicTicksUntilStopped(t *testing.T) {
	var calls atomic.Int32
	p := NewPeriodic(5*time.Millisecond, func() { calls.Add(1) })

	assert.False(t, p.Running())
	p.Start()
	assert.True(t, p.Running())

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())
	time.Sleep(20 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestPeriodicStopIsIdempotent(t *testing.T) {
	p := NewPeriodic(time.Hour, func() {})
	p.Stop()
	p.Start()
	p.Stop()
	p.Stop()
	assert.False(t, p.Running())
}

func TestPeriodicRestartKeepsOneLoop(t *testing.T) {
	var calls atomic.Int32
	p := NewPeriodic(20*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		p.Start()
	}
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	// a single loop fires at most twice in 50ms
	assert.LessOrEqual(t, calls.Load(), int32(3))
}
