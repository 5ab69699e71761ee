package duelmanager

import (
	"context"
	"log"
	"sync"
	"time"
)

// TimeoutFunc вызывается по истечении времени дуэли
type TimeoutFunc func(ctx context.Context, duelID string)

// timerHandle — хранимая в map обертка: указатели сравнимы,
// что позволяет CompareAndDelete не удалять чужой (более новый) таймер.
type timerHandle struct {
	cancel context.CancelFunc
}

// Scheduler отвечает за одноразовые таймеры истечения дуэлей.
// Таймер взводится при старте FRENZY-дуэли и отменяется при её
// нормальном завершении; сработавший обработчик сам перепроверяет
// статус, так что опоздавшая отмена безопасна.
//
// Контексты таймеров наследуются от baseCtx — контекста жизни приложения,
// а не запроса: таймер должен пережить HTTP-запрос, который его взвел.
type Scheduler struct {
	// Контекст жизни приложения; его отмена гасит все таймеры
	baseCtx context.Context
	// Обработчик срабатывания таймера
	onTimeout TimeoutFunc

	// Внутреннее состояние
	duelTimers sync.Map // map[string]*timerHandle
}

// NewScheduler создает новый планировщик таймеров дуэлей
func NewScheduler(baseCtx context.Context, onTimeout TimeoutFunc) *Scheduler {
	return &Scheduler{
		baseCtx:   baseCtx,
		onTimeout: onTimeout,
	}
}

// ScheduleTimeout взводит одноразовый таймер для дуэли.
// Повторный вызов для той же дуэли заменяет прежний таймер.
func (s *Scheduler) ScheduleTimeout(duelID string, duration time.Duration) {
	duelCtx, cancel := context.WithCancel(s.baseCtx)
	handle := &timerHandle{cancel: cancel}

	if prev, loaded := s.duelTimers.Swap(duelID, handle); loaded {
		prev.(*timerHandle).cancel()
	}

	go s.runTimer(duelCtx, handle, duelID, duration)

	log.Printf("[DuelScheduler] Таймер дуэли %s взведен на %v", duelID, duration)
}

// Cancel отменяет таймер дуэли, если он взведен
func (s *Scheduler) Cancel(duelID string) {
	handle, ok := s.duelTimers.LoadAndDelete(duelID)
	if !ok {
		return
	}
	handle.(*timerHandle).cancel()
	log.Printf("[DuelScheduler] Таймер дуэли %s отменен", duelID)
}

// runTimer ждет истечения длительности либо отмены
func (s *Scheduler) runTimer(ctx context.Context, handle *timerHandle, duelID string, duration time.Duration) {
	defer s.duelTimers.CompareAndDelete(duelID, handle)

	select {
	case <-time.After(duration):
		log.Printf("[DuelScheduler] Время дуэли %s истекло", duelID)
		s.onTimeout(ctx, duelID)
	case <-ctx.Done():
		// Отменен: дуэль завершилась обычным путем или процесс останавливается
	}
}
