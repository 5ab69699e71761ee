package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingDelta_EqualRatings(t *testing.T) {
	// При равных рейтингах ожидание 0.5: победа +16, поражение -16, ничья 0
	assert.Equal(t, 16, RatingDelta(1000, 1000, OutcomeWin))
	assert.Equal(t, -16, RatingDelta(1000, 1000, OutcomeLoss))
	assert.Equal(t, 0, RatingDelta(1000, 1000, OutcomeDraw))
}

func TestRatingDelta_ZeroSumForEqualRatings(t *testing.T) {
	winner := RatingDelta(1200, 1200, OutcomeWin)
	loser := RatingDelta(1200, 1200, OutcomeLoss)
	assert.Equal(t, 0, winner+loser)
}

func TestRatingDelta_FavoriteGainsLess(t *testing.T) {
	// Победа фаворита дает меньше очков, чем победа андердога
	favorite := RatingDelta(1400, 1000, OutcomeWin)
	underdog := RatingDelta(1000, 1400, OutcomeWin)

	assert.Less(t, favorite, underdog)
	assert.Greater(t, favorite, 0)
}

func TestRatingDelta_UnderdogLosesLess(t *testing.T) {
	favoriteLoss := RatingDelta(1400, 1000, OutcomeLoss)
	underdogLoss := RatingDelta(1000, 1400, OutcomeLoss)

	// Оба теряют, но андердог теряет меньше по модулю
	assert.Less(t, favoriteLoss, 0)
	assert.Less(t, underdogLoss, 0)
	assert.Greater(t, underdogLoss, favoriteLoss)
}

func TestRatingDelta_DrawMovesUnequalRatings(t *testing.T) {
	// Ничья сдвигает рейтинги неравных игроков навстречу друг другу
	high := RatingDelta(1400, 1000, OutcomeDraw)
	low := RatingDelta(1000, 1400, OutcomeDraw)

	assert.Less(t, high, 0)
	assert.Greater(t, low, 0)
}

func TestApplyRatingDelta_FloorAtZero(t *testing.T) {
	assert.Equal(t, 0, ApplyRatingDelta(10, -16))
	assert.Equal(t, 0, ApplyRatingDelta(0, -1))
	assert.Equal(t, 984, ApplyRatingDelta(1000, -16))
	assert.Equal(t, 1016, ApplyRatingDelta(1000, 16))
}
