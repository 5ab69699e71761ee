package matchmaking

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairingQueue_JoinEmptyQueue(t *testing.T) {
	q := NewPairingQueue()

	res := q.Join(1, "history", "CLASSIC", 1000)

	// Join только ищет соперника, собственная запись не вставляется
	assert.False(t, res.Found)
	assert.Equal(t, 0, q.Size("history", "CLASSIC"))
}

func TestPairingQueue_JoinFindsClosestRating(t *testing.T) {
	// Arrange: три ожидающих с разными рейтингами
	q := NewPairingQueue()
	q.Enqueue(1, "history", "CLASSIC", 800, "duel-1")
	q.Enqueue(2, "history", "CLASSIC", 1200, "duel-2")
	q.Enqueue(3, "history", "CLASSIC", 1500, "duel-3")

	// Act: новый игрок с рейтингом 1150
	res := q.Join(4, "history", "CLASSIC", 1150)

	// Assert: выбран ближайший по рейтингу (1200)
	require.True(t, res.Found)
	assert.Equal(t, uint(2), res.OpponentUserID)
	assert.Equal(t, "duel-2", res.OpponentDuelID)
	assert.Equal(t, 2, q.Size("history", "CLASSIC"))
}

func TestPairingQueue_TieBrokenByJoinOrder(t *testing.T) {
	q := NewPairingQueue()
	q.Enqueue(1, "science", "CLASSIC", 900, "duel-1")
	q.Enqueue(2, "science", "CLASSIC", 1100, "duel-2")

	// Разница рейтинга одинаковая (100), побеждает более ранняя запись
	res := q.Join(3, "science", "CLASSIC", 1000)

	require.True(t, res.Found)
	assert.Equal(t, uint(1), res.OpponentUserID)
}

func TestPairingQueue_SeparateBucketsPerThemeAndMode(t *testing.T) {
	q := NewPairingQueue()
	q.Enqueue(1, "history", "CLASSIC", 1000, "duel-1")

	// Другая тема и другой режим не пересекаются с ожидающим
	resTheme := q.Join(2, "science", "CLASSIC", 1000)
	resMode := q.Join(3, "history", "FRENZY", 1000)

	assert.False(t, resTheme.Found)
	assert.False(t, resMode.Found)
	assert.Equal(t, 1, q.Size("history", "CLASSIC"))
}

func TestPairingQueue_JoinDoesNotMatchSelf(t *testing.T) {
	q := NewPairingQueue()
	q.Enqueue(1, "history", "CLASSIC", 1000, "duel-1")

	// Повторный вход того же пользователя не дает матча с самим собой:
	// его собственная запись сначала удаляется
	res := q.Join(1, "history", "CLASSIC", 1000)

	assert.False(t, res.Found)
	assert.Equal(t, 0, q.Size("history", "CLASSIC"))
}

func TestPairingQueue_EnqueueReplacesOldEntry(t *testing.T) {
	q := NewPairingQueue()
	q.Enqueue(1, "history", "CLASSIC", 1000, "duel-1")

	// Повторная вставка в другую корзину удаляет запись из прежней
	q.Enqueue(1, "science", "CLASSIC", 1000, "duel-1b")

	assert.Equal(t, 0, q.Size("history", "CLASSIC"))
	assert.Equal(t, 1, q.Size("science", "CLASSIC"))
}

func TestPairingQueue_Leave(t *testing.T) {
	q := NewPairingQueue()
	q.Enqueue(1, "history", "CLASSIC", 1000, "duel-1")

	q.Leave(1)

	assert.Equal(t, 0, q.Size("history", "CLASSIC"))

	// Leave несуществующего пользователя — no-op
	q.Leave(42)
}

func TestPairingQueue_ConcurrentJoinsMatchEachEntryOnce(t *testing.T) {
	// Arrange: 50 ожидающих соперников
	q := NewPairingQueue()
	const waiting = 50
	for i := 1; i <= waiting; i++ {
		q.Enqueue(uint(i), "history", "CLASSIC", 1000+i, fmt.Sprintf("duel-%d", i))
	}

	// Act: 50 одновременных join, каждый должен забрать ровно одну запись
	var wg sync.WaitGroup
	results := make([]MatchResult, waiting)
	for i := 0; i < waiting; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = q.Join(uint(1000+i), "history", "CLASSIC", 1000)
		}(i)
	}
	wg.Wait()

	// Assert: ни одна запись не выбрана дважды
	seen := make(map[uint]bool)
	for _, res := range results {
		require.True(t, res.Found)
		assert.False(t, seen[res.OpponentUserID], "opponent %d matched twice", res.OpponentUserID)
		seen[res.OpponentUserID] = true
	}
	assert.Equal(t, 0, q.Size("history", "CLASSIC"))
}
