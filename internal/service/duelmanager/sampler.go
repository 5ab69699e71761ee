package duelmanager

import (
	"fmt"
	"math/rand"
)

// SampleIDs возвращает n равновероятных ID без повторов из pool.
// Частичный Fisher–Yates: перемешиваются только первые n позиций копии,
// исходный срез не изменяется. Источник случайности передается явно,
// чтобы тесты могли использовать фиксированный seed.
func SampleIDs(pool []uint, n int, rng *rand.Rand) ([]uint, error) {
	if n < 0 {
		return nil, fmt.Errorf("sample size must be non-negative, got %d", n)
	}
	if len(pool) < n {
		return nil, fmt.Errorf("pool has %d ids, need %d", len(pool), n)
	}

	ids := make([]uint, len(pool))
	copy(ids, pool)

	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:n], nil
}
