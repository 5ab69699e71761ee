package service

import "math"

// Константы рейтинговой формулы
const (
	// RatingKFactor — коэффициент K логистической формулы
	RatingKFactor = 32

	// ratingScale — знаменатель экспоненты ожидания
	ratingScale = 400
)

// Outcome — исход матча с точки зрения одного игрока
type Outcome float64

const (
	OutcomeWin  Outcome = 1
	OutcomeDraw Outcome = 0.5
	OutcomeLoss Outcome = 0
)

// RatingDelta вычисляет изменение рейтинга игрока по исходу матча.
// expected = 1 / (1 + 10^((opponent-player)/400)); delta = round(K * (score - expected)).
// Дельты обоих игроков считаются от рейтингов ДО матча, не последовательно,
// чтобы порядок применения не вносил смещения.
func RatingDelta(playerRating, opponentRating int, outcome Outcome) int {
	expected := 1 / (1 + math.Pow(10, float64(opponentRating-playerRating)/ratingScale))
	return int(math.Round(RatingKFactor * (float64(outcome) - expected)))
}

// ApplyRatingDelta возвращает новый рейтинг с нижней границей 0
func ApplyRatingDelta(rating, delta int) int {
	next := rating + delta
	if next < 0 {
		return 0
	}
	return next
}
