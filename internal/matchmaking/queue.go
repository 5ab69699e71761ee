package matchmaking

import (
	"fmt"
	"sync"
	"time"
)

// QueueEntry — запись ожидающего игрока в очереди подбора.
// Очередь процесс-локальна и теряется при рестарте: источником истины
// о существовании дуэли всегда остается хранилище.
type QueueEntry struct {
	UserID   uint
	Theme    string
	Mode     string
	Rating   int
	DuelID   string
	JoinedAt time.Time
}

// MatchResult — результат попытки подбора соперника
type MatchResult struct {
	Found          bool
	OpponentUserID uint
	OpponentDuelID string
}

// PairingQueue хранит ожидающих игроков по ключу (тема, режим) и
// подбирает соперника с минимальной разницей рейтинга.
// Все операции выполняются под мьютексом: scan-and-remove должен быть
// атомарным, иначе два одновременных join выберут одну и ту же запись.
type PairingQueue struct {
	mu      sync.Mutex
	buckets map[string][]QueueEntry
}

// NewPairingQueue создает пустую очередь подбора
func NewPairingQueue() *PairingQueue {
	return &PairingQueue{
		buckets: make(map[string][]QueueEntry),
	}
}

func bucketKey(theme, mode string) string {
	return fmt.Sprintf("%s:%s", theme, mode)
}

// Join удаляет прежнюю запись пользователя (идемпотентный повторный вход),
// затем ищет в корзине (theme, mode) запись с минимальной |разницей рейтинга|;
// при равенстве побеждает более ранний JoinedAt. Найденный соперник атомарно
// удаляется из очереди и возвращается. Собственная запись вызывающего НЕ
// вставляется: у него еще нет WAITING-дуэли, вставка выполняется отдельным
// Enqueue после её создания.
func (q *PairingQueue) Join(userID uint, theme, mode string, rating int) MatchResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(userID)

	key := bucketKey(theme, mode)
	bucket := q.buckets[key]

	bestIdx := -1
	bestDiff := 0
	for i, e := range bucket {
		diff := e.Rating - rating
		if diff < 0 {
			diff = -diff
		}
		if bestIdx == -1 || diff < bestDiff {
			bestIdx = i
			bestDiff = diff
			continue
		}
		// Записи хранятся в порядке вставки, поэтому при равной разнице
		// более ранняя уже выбрана — FIFO без дополнительного сравнения.
	}

	if bestIdx >= 0 {
		opponent := bucket[bestIdx]
		q.buckets[key] = append(bucket[:bestIdx], bucket[bestIdx+1:]...)
		if len(q.buckets[key]) == 0 {
			delete(q.buckets, key)
		}
		return MatchResult{
			Found:          true,
			OpponentUserID: opponent.UserID,
			OpponentDuelID: opponent.DuelID,
		}
	}

	return MatchResult{Found: false}
}

// Enqueue вставляет запись пользователя с ID его WAITING-дуэли, заменяя
// прежнюю запись. Вызывается после создания дуэли либо при повторном
// входе с уже существующей WAITING-дуэлью.
func (q *PairingQueue) Enqueue(userID uint, theme, mode string, rating int, duelID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(userID)

	key := bucketKey(theme, mode)
	q.buckets[key] = append(q.buckets[key], QueueEntry{
		UserID:   userID,
		Theme:    theme,
		Mode:     mode,
		Rating:   rating,
		DuelID:   duelID,
		JoinedAt: time.Now(),
	})
}

// Leave удаляет запись пользователя из очереди, независимо от темы и режима
func (q *PairingQueue) Leave(userID uint) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(userID)
}

// Size возвращает количество ожидающих в корзине (theme, mode)
func (q *PairingQueue) Size(theme, mode string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buckets[bucketKey(theme, mode)])
}

// removeLocked удаляет запись пользователя из всех корзин. Вызывается под мьютексом.
func (q *PairingQueue) removeLocked(userID uint) {
	for key, bucket := range q.buckets {
		for i, e := range bucket {
			if e.UserID == userID {
				q.buckets[key] = append(bucket[:i], bucket[i+1:]...)
				if len(q.buckets[key]) == 0 {
					delete(q.buckets, key)
				}
				return
			}
		}
	}
}
