package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/duel-api/internal/domain/repository"
	"github.com/yourusername/duel-api/internal/matchmaking"
	apperrors "github.com/yourusername/duel-api/internal/pkg/errors"
)

// JoinQueueResult — исход запроса на вход в очередь подбора
type JoinQueueResult struct {
	Matched        bool   `json:"matched"`
	Queued         bool   `json:"queued"`
	DuelID         string `json:"duel_id"`
	OpponentUserID uint   `json:"opponent_user_id,omitempty"`
	QueueSize      int    `json:"queue_size,omitempty"`
}

// MatchmakingService связывает очередь подбора с жизненным циклом дуэлей:
// решает, запускает ли входящий запрос существующую WAITING-дуэль или
// создает новую
type MatchmakingService struct {
	queue       *matchmaking.PairingQueue
	duelService *DuelService
	duelRepo    repository.DuelRepository
	userRepo    repository.UserRepository
}

// NewMatchmakingService создает новый сервис подбора соперников
func NewMatchmakingService(
	queue *matchmaking.PairingQueue,
	duelService *DuelService,
	duelRepo repository.DuelRepository,
	userRepo repository.UserRepository,
) *MatchmakingService {
	return &MatchmakingService{
		queue:       queue,
		duelService: duelService,
		duelRepo:    duelRepo,
		userRepo:    userRepo,
	}
}

// JoinQueue обрабатывает запрос пользователя на поиск соперника.
// Инвариант: пользователь участвует максимум в одной активной дуэли.
func (s *MatchmakingService) JoinQueue(ctx context.Context, userID uint, theme, mode string) (*JoinQueueResult, error) {
	if _, err := s.duelRepo.FindOngoingForUser(userID); err == nil {
		return nil, fmt.Errorf("%w: user %d is already in an ongoing duel", apperrors.ErrConflict, userID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	rating, err := s.userRepo.GetRating(userID)
	if err != nil {
		return nil, err
	}

	// Очередь процесс-локальна и теряется при рестарте: если у пользователя
	// уже есть WAITING-дуэль этой темы и режима, возвращаем его в очередь
	// с её ID вместо создания дубликата
	if existing, err := s.duelRepo.FindWaitingForUserAndTheme(userID, theme, mode); err == nil {
		s.queue.Enqueue(userID, theme, mode, rating, existing.ID)
		log.Printf("[Matchmaking] Игрок %d возвращен в очередь с дуэлью %s", userID, existing.ID)
		return &JoinQueueResult{
			Queued:    true,
			DuelID:    existing.ID,
			QueueSize: s.queue.Size(theme, mode),
		}, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	match := s.queue.Join(userID, theme, mode, rating)
	if match.Found {
		duel, err := s.duelService.JoinAndStart(ctx, match.OpponentDuelID, userID, theme)
		if err != nil {
			// Дуэль соперника могла исчезнуть или уже запуститься, пока его
			// запись лежала в очереди; очередь — не источник истины.
			// Деградируем до создания новой WAITING-дуэли.
			if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidState) {
				log.Printf("[Matchmaking] Дуэль %s из очереди непригодна (%v), создаю новую",
					match.OpponentDuelID, err)
				return s.createAndEnqueue(userID, theme, mode, rating)
			}
			return nil, err
		}
		log.Printf("[Matchmaking] Игроки %d и %d сведены в дуэли %s",
			match.OpponentUserID, userID, duel.ID)
		return &JoinQueueResult{
			Matched:        true,
			DuelID:         duel.ID,
			OpponentUserID: match.OpponentUserID,
		}, nil
	}

	// Соперника нет: создаем WAITING-дуэль и встаем в очередь с её ID
	return s.createAndEnqueue(userID, theme, mode, rating)
}

func (s *MatchmakingService) createAndEnqueue(userID uint, theme, mode string, rating int) (*JoinQueueResult, error) {
	duel, err := s.duelService.CreateWaitingDuel(userID, theme, mode)
	if err != nil {
		return nil, err
	}
	s.queue.Enqueue(userID, theme, mode, rating, duel.ID)
	return &JoinQueueResult{
		Queued:    true,
		DuelID:    duel.ID,
		QueueSize: s.queue.Size(theme, mode),
	}, nil
}

// LeaveQueue убирает пользователя из очереди и отменяет его WAITING-дуэли
func (s *MatchmakingService) LeaveQueue(userID uint) error {
	s.queue.Leave(userID)
	return s.duelService.CancelWaitingDuelsForUser(userID)
}

// QueueSize возвращает количество ожидающих в корзине (theme, mode)
func (s *MatchmakingService) QueueSize(theme, mode string) int {
	return s.queue.Size(theme, mode)
}
