package duelmanager

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_FiresAfterDuration(t *testing.T) {
	fired := make(chan string, 1)
	s := NewScheduler(context.Background(), func(ctx context.Context, duelID string) {
		fired <- duelID
	})

	s.ScheduleTimeout("duel-1", 20*time.Millisecond)

	select {
	case id := <-fired:
		assert.Equal(t, "duel-1", id)
	case <-time.After(time.Second):
		t.Fatal("timeout handler was not invoked")
	}
}

func TestScheduler_CancelPreventsFiring(t *testing.T) {
	var fires int32
	s := NewScheduler(context.Background(), func(ctx context.Context, duelID string) {
		atomic.AddInt32(&fires, 1)
	})

	s.ScheduleTimeout("duel-1", 50*time.Millisecond)
	s.Cancel("duel-1")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fires))
}

func TestScheduler_CancelUnknownDuelIsNoop(t *testing.T) {
	s := NewScheduler(context.Background(), func(ctx context.Context, duelID string) {})
	s.Cancel("no-such-duel")
}

func TestScheduler_RescheduleReplacesTimer(t *testing.T) {
	var fires int32
	fired := make(chan struct{}, 2)
	s := NewScheduler(context.Background(), func(ctx context.Context, duelID string) {
		atomic.AddInt32(&fires, 1)
		fired <- struct{}{}
	})

	// Второй вызов заменяет первый таймер, обработчик срабатывает один раз
	s.ScheduleTimeout("duel-1", 30*time.Millisecond)
	s.ScheduleTimeout("duel-1", 30*time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timeout handler was not invoked")
	}
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fires))
}

func TestScheduler_ShutdownCancelsTimers(t *testing.T) {
	// Отмена контекста приложения гасит взведенные таймеры
	var fires int32
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(ctx, func(ctx context.Context, duelID string) {
		atomic.AddInt32(&fires, 1)
	})

	s.ScheduleTimeout("duel-1", 50*time.Millisecond)
	cancel()

	time.Sleep(150 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&fires))
}
