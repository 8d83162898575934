package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingSender struct {
	calls  atomic.Int32
	within atomic.Int32
}

func (c *countingSender) CheckAndNotify(_ context.Context, withinDays int) (int, error) {
	c.calls.Add(1)
	c.within.Store(int32(withinDays))
	return 1, nil
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	logger := zerolog.Nop()
	sender := &countingSender{}
	s := NewScheduler(10*time.Millisecond, 5, sender, &logger)

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return sender.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Equal(t, int32(5), sender.within.Load())
	after := sender.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, sender.calls.Load())
}

func TestNewScheduler_Defaults(t *testing.T) {
	logger := zerolog.Nop()
	s := NewScheduler(0, 0, &countingSender{}, &logger)
	assert.Equal(t, time.Hour, s.interval)
	assert.Equal(t, 3, s.withinDays)
}
