package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingScan struct {
	count int32
	delay time.Duration
}

func (s *countingScan) RunScan(ctx context.Context) error {
	atomic.AddInt32(&s.count, 1)
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func TestScheduler_StartRunsImmediatelyThenOnInterval(t *testing.T) {
	scan := &countingScan{}
	s := New(20*time.Millisecond, scan, zerolog.Nop())

	s.Start()
	time.Sleep(55 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&scan.count), int32(2))
	assert.Equal(t, StateIdle, s.CurrentState())
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	scan := &countingScan{delay: 10 * time.Millisecond}
	s := New(time.Hour, scan, zerolog.Nop())

	s.Start()
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&scan.count))
}

func TestScheduler_StopWakesSleepingLoopImmediately(t *testing.T) {
	scan := &countingScan{}
	s := New(time.Hour, scan, zerolog.Nop())

	s.Start()
	time.Sleep(5 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return promptly; loop failed to wake on the long interval")
	}
}

func TestScheduler_StopCancelsInFlightScan(t *testing.T) {
	scan := &countingScan{delay: 5 * time.Second}
	s := New(time.Hour, scan, zerolog.Nop())

	s.Start()
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the in-flight scan's context")
	}
}

func TestScheduler_AddCronJobRejectsMalformedSpec(t *testing.T) {
	scan := &countingScan{}
	s := New(time.Hour, scan, zerolog.Nop())
	err := s.AddCronJob("not a cron spec", "bad", func() {})
	require.Error(t, err)
}
