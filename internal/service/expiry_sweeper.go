package service

import (
	"context"
	"log"
	"time"
)

// ExpirySweeper периодически запускает зачистку просроченных дуэлей.
// Ошибки отдельного прохода логируются и не останавливают цикл.
type ExpirySweeper struct {
	duelService *DuelService
	interval    time.Duration
}

// NewExpirySweeper создает новый периодический зачистщик
func NewExpirySweeper(duelService *DuelService, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		duelService: duelService,
		interval:    interval,
	}
}

// Run выполняет зачистку по таймеру до отмены контекста
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[ExpirySweeper] Запущен с интервалом %v", s.interval)
	for {
		select {
		case <-ticker.C:
			changed, err := s.duelService.ExpireStale()
			if err != nil {
				log.Printf("[ExpirySweeper] Ошибка зачистки: %v", err)
				continue
			}
			if changed > 0 {
				log.Printf("[ExpirySweeper] Изменено дуэлей: %d", changed)
			}
		case <-ctx.Done():
			log.Println("[ExpirySweeper] Остановлен")
			return
		}
	}
}
