package repository

import (
	"errors"
	"time"

	"github.com/yourusername/duel-api/internal/domain/entity"
)

// Ошибки уровня репозитория дуэлей
var (
	// ErrDuplicateAnswer возвращается при нарушении уникальности
	// (duel_id, player_user_id, question_id) — повторная отправка ответов.
	ErrDuplicateAnswer = errors.New("answers already submitted for this duel")

	// ErrDuelNotOngoing возвращается, когда условный переход статуса
	// не затронул ни одной строки: дуэль уже не ONGOING.
	ErrDuelNotOngoing = errors.New("duel is not ongoing")
)

// RatingUpdate описывает новое значение рейтинга одного игрока,
// применяемое транзакционно вместе с завершением дуэли.
type RatingUpdate struct {
	UserID    uint
	NewRating int
	Won       bool
}

// DuelRepository определяет методы для работы с дуэлями.
// Многострочные записи (игрок+вопросы+статус, ответы+счет, завершение+рейтинги)
// выполняются единой транзакцией: частичное применение недопустимо.
type DuelRepository interface {
	CreateWaiting(duel *entity.Duel, creatorID uint) error
	GetByID(duelID string) (*entity.Duel, error)
	// GetByIDForUser возвращает дуэль с игроками и упорядоченными вопросами,
	// только если пользователь — её участник.
	GetByIDForUser(duelID string, userID uint) (*entity.Duel, error)
	// FindActiveForUser возвращает WAITING или ONGOING дуэль пользователя (nil, ErrNotFound если нет)
	FindActiveForUser(userID uint) (*entity.Duel, error)
	FindOngoingForUser(userID uint) (*entity.Duel, error)
	FindWaitingForUserAndTheme(userID uint, theme, mode string) (*entity.Duel, error)
	FindWaitingForUser(userID uint) ([]entity.Duel, error)

	// JoinAndStart в одной транзакции: добавляет второго игрока, фиксирует
	// упорядоченный набор вопросов и переводит WAITING → ONGOING (startedAt=now).
	JoinAndStart(duelID string, joinerID uint, questionIDs []uint) error

	GetPlayers(duelID string) ([]entity.DuelPlayer, error)
	HasSubmitted(duelID string, userID uint) (bool, error)
	GetAnswers(duelID string, userID uint) ([]entity.DuelAnswer, error)

	// SaveAnswersAndScore в одной транзакции вставляет ответы и записывает
	// счет игрока. Нарушение уникальности ответов → ErrDuplicateAnswer.
	SaveAnswersAndScore(duelID string, userID uint, answers []entity.DuelAnswer, score int) error

	// FinishAndApplyRatings в одной транзакции переводит ONGOING → FINISHED
	// (условным обновлением) и применяет новые рейтинги обоих игроков.
	// Если дуэль уже не ONGOING, возвращает ErrDuelNotOngoing и ничего не меняет —
	// защита от двойного применения рейтинга при гонке двух отправителей.
	FinishAndApplyRatings(duelID string, updates [2]RatingUpdate) error

	UpdateStatus(duelID string, status string) error
	RemovePlayer(duelID string, userID uint) error
	CountPlayers(duelID string) (int64, error)
	Delete(duelID string) error

	// ExpireOngoing переводит в FINISHED все ONGOING дуэли, начатые раньше cutoff.
	// Возвращает ID затронутых дуэлей.
	ExpireOngoing(cutoff time.Time, now time.Time) ([]string, error)
	// CancelWaiting переводит в CANCELED все WAITING дуэли, созданные раньше cutoff.
	CancelWaiting(cutoff time.Time) (int64, error)
}
