package duelmanager

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleIDs_ReturnsDistinctSubset(t *testing.T) {
	pool := []uint{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	rng := rand.New(rand.NewSource(42))

	sample, err := SampleIDs(pool, 5, rng)

	require.NoError(t, err)
	require.Len(t, sample, 5)

	seen := make(map[uint]bool)
	for _, id := range sample {
		assert.False(t, seen[id], "id %d sampled twice", id)
		seen[id] = true
		assert.Contains(t, pool, id)
	}
}

func TestSampleIDs_FullPool(t *testing.T) {
	pool := []uint{7, 8, 9}
	rng := rand.New(rand.NewSource(1))

	sample, err := SampleIDs(pool, 3, rng)

	require.NoError(t, err)
	assert.ElementsMatch(t, pool, sample)
}

func TestSampleIDs_PoolTooSmall(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := SampleIDs([]uint{1, 2}, 3, rng)

	assert.Error(t, err)
}

func TestSampleIDs_DoesNotMutatePool(t *testing.T) {
	pool := []uint{1, 2, 3, 4, 5}
	original := []uint{1, 2, 3, 4, 5}
	rng := rand.New(rand.NewSource(99))

	_, err := SampleIDs(pool, 3, rng)

	require.NoError(t, err)
	assert.Equal(t, original, pool)
}

func TestSampleIDs_DeterministicWithSeed(t *testing.T) {
	pool := []uint{1, 2, 3, 4, 5, 6, 7, 8}

	first, err := SampleIDs(pool, 4, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	second, err := SampleIDs(pool, 4, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
