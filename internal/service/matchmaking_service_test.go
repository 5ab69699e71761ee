package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/duel-api/internal/domain/entity"
	"github.com/yourusername/duel-api/internal/matchmaking"
	apperrors "github.com/yourusername/duel-api/internal/pkg/errors"
)

// Моки репозиториев объявлены в duel_service_test.go

func newTestMatchmakingService(
	duelRepo *MockDuelRepository,
	userRepo *MockUserRepository,
	questionRepo *MockQuestionRepository,
) (*MatchmakingService, *matchmaking.PairingQueue) {
	duelService, _ := newTestDuelService(duelRepo, userRepo, questionRepo)
	queue := matchmaking.NewPairingQueue()
	return NewMatchmakingService(queue, duelService, duelRepo, userRepo), queue
}

func TestMatchmakingService_JoinQueue_FirstUserQueued(t *testing.T) {
	// Arrange
	mockDuelRepo := new(MockDuelRepository)
	mockUserRepo := new(MockUserRepository)

	mockDuelRepo.On("FindOngoingForUser", uint(1)).Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetRating", uint(1)).Return(1000, nil)
	mockDuelRepo.On("FindWaitingForUserAndTheme", uint(1), "history", "CLASSIC").
		Return(nil, apperrors.ErrNotFound)
	mockDuelRepo.On("CreateWaiting", mock.AnythingOfType("*entity.Duel"), uint(1)).
		Run(func(args mock.Arguments) {
			args.Get(0).(*entity.Duel).ID = "duel-A"
		}).
		Return(nil)

	svc, queue := newTestMatchmakingService(mockDuelRepo, mockUserRepo, new(MockQuestionRepository))

	// Act
	result, err := svc.JoinQueue(context.Background(), 1, "history", entity.DuelModeClassic)

	// Assert
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.True(t, result.Queued)
	assert.Equal(t, "duel-A", result.DuelID)
	assert.Equal(t, 1, queue.Size("history", entity.DuelModeClassic))
	mockDuelRepo.AssertExpectations(t)
}

func TestMatchmakingService_JoinQueue_SecondUserMatched(t *testing.T) {
	// Arrange: игрок 1 уже ждет в очереди с дуэлью duel-A
	mockDuelRepo := new(MockDuelRepository)
	mockUserRepo := new(MockUserRepository)
	mockQuestionRepo := new(MockQuestionRepository)

	mockDuelRepo.On("FindOngoingForUser", uint(2)).Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetRating", uint(2)).Return(1050, nil)
	mockDuelRepo.On("FindWaitingForUserAndTheme", uint(2), "history", "CLASSIC").
		Return(nil, apperrors.ErrNotFound)

	waiting := &entity.Duel{
		ID:      "duel-A",
		Theme:   "history",
		Mode:    entity.DuelModeClassic,
		Status:  entity.DuelStatusWaiting,
		Players: []entity.DuelPlayer{{DuelID: "duel-A", UserID: 1}},
	}
	started := ongoingDuelWithQuestions("duel-A")

	mockDuelRepo.On("GetByID", "duel-A").Return(waiting, nil).Once()
	mockQuestionRepo.On("GetIDsByTheme", "history").Return([]uint{1, 2, 3}, nil)
	mockDuelRepo.On("JoinAndStart", "duel-A", uint(2), mock.AnythingOfType("[]uint")).Return(nil)
	mockDuelRepo.On("GetByID", "duel-A").Return(started, nil).Once()

	svc, queue := newTestMatchmakingService(mockDuelRepo, mockUserRepo, mockQuestionRepo)
	queue.Enqueue(1, "history", entity.DuelModeClassic, 1000, "duel-A")

	// Act
	result, err := svc.JoinQueue(context.Background(), 2, "history", entity.DuelModeClassic)

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "duel-A", result.DuelID)
	assert.Equal(t, uint(1), result.OpponentUserID)
	// Запись соперника потреблена из очереди
	assert.Equal(t, 0, queue.Size("history", entity.DuelModeClassic))
	mockDuelRepo.AssertExpectations(t)
}

func TestMatchmakingService_JoinQueue_AlreadyInOngoingDuel(t *testing.T) {
	mockDuelRepo := new(MockDuelRepository)
	ongoing := &entity.Duel{ID: "duel-X", Status: entity.DuelStatusOngoing}
	mockDuelRepo.On("FindOngoingForUser", uint(1)).Return(ongoing, nil)

	svc, _ := newTestMatchmakingService(mockDuelRepo, new(MockUserRepository), new(MockQuestionRepository))

	result, err := svc.JoinQueue(context.Background(), 1, "history", entity.DuelModeClassic)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Nil(t, result)
	mockDuelRepo.AssertNotCalled(t, "CreateWaiting")
}

func TestMatchmakingService_JoinQueue_RequeuesExistingWaitingDuel(t *testing.T) {
	// Очередь процесс-локальна: после рестарта у игрока может остаться
	// WAITING-дуэль, не представленная в очереди. Повторный вход
	// возвращает её в очередь вместо создания дубликата.
	mockDuelRepo := new(MockDuelRepository)
	mockUserRepo := new(MockUserRepository)

	existing := &entity.Duel{
		ID:     "duel-old",
		Theme:  "history",
		Mode:   entity.DuelModeClassic,
		Status: entity.DuelStatusWaiting,
	}

	mockDuelRepo.On("FindOngoingForUser", uint(1)).Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetRating", uint(1)).Return(1000, nil)
	mockDuelRepo.On("FindWaitingForUserAndTheme", uint(1), "history", "CLASSIC").Return(existing, nil)

	svc, queue := newTestMatchmakingService(mockDuelRepo, mockUserRepo, new(MockQuestionRepository))

	result, err := svc.JoinQueue(context.Background(), 1, "history", entity.DuelModeClassic)

	require.NoError(t, err)
	assert.True(t, result.Queued)
	assert.Equal(t, "duel-old", result.DuelID)
	assert.Equal(t, 1, queue.Size("history", entity.DuelModeClassic))
	mockDuelRepo.AssertNotCalled(t, "CreateWaiting")
}

func TestMatchmakingService_JoinQueue_StaleEntryFallsBackToNewDuel(t *testing.T) {
	// Дуэль соперника из очереди уже исчезла: вместо ошибки создается
	// новая WAITING-дуэль
	mockDuelRepo := new(MockDuelRepository)
	mockUserRepo := new(MockUserRepository)

	mockDuelRepo.On("FindOngoingForUser", uint(2)).Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetRating", uint(2)).Return(1000, nil)
	mockDuelRepo.On("FindWaitingForUserAndTheme", uint(2), "history", "CLASSIC").
		Return(nil, apperrors.ErrNotFound)
	mockDuelRepo.On("GetByID", "duel-gone").Return(nil, apperrors.ErrNotFound)
	mockDuelRepo.On("CreateWaiting", mock.AnythingOfType("*entity.Duel"), uint(2)).
		Run(func(args mock.Arguments) {
			args.Get(0).(*entity.Duel).ID = "duel-new"
		}).
		Return(nil)

	svc, queue := newTestMatchmakingService(mockDuelRepo, mockUserRepo, new(MockQuestionRepository))
	queue.Enqueue(1, "history", entity.DuelModeClassic, 1000, "duel-gone")

	result, err := svc.JoinQueue(context.Background(), 2, "history", entity.DuelModeClassic)

	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.True(t, result.Queued)
	assert.Equal(t, "duel-new", result.DuelID)
	mockDuelRepo.AssertExpectations(t)
}

func TestMatchmakingService_LeaveQueue_CancelsWaitingDuels(t *testing.T) {
	mockDuelRepo := new(MockDuelRepository)
	mockUserRepo := new(MockUserRepository)

	mockDuelRepo.On("FindWaitingForUser", uint(1)).Return([]entity.Duel{
		{ID: "duel-A", Status: entity.DuelStatusWaiting},
	}, nil)
	mockDuelRepo.On("UpdateStatus", "duel-A", entity.DuelStatusCanceled).Return(nil)

	svc, queue := newTestMatchmakingService(mockDuelRepo, mockUserRepo, new(MockQuestionRepository))
	queue.Enqueue(1, "history", entity.DuelModeClassic, 1000, "duel-A")

	err := svc.LeaveQueue(1)

	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size("history", entity.DuelModeClassic))
	mockDuelRepo.AssertExpectations(t)
}

func TestMatchmakingService_LeaveQueue_Idempotent(t *testing.T) {
	mockDuelRepo := new(MockDuelRepository)
	mockDuelRepo.On("FindWaitingForUser", uint(1)).Return([]entity.Duel{}, nil)

	svc, _ := newTestMatchmakingService(mockDuelRepo, new(MockUserRepository), new(MockQuestionRepository))

	// Пользователя нет ни в очереди, ни в WAITING-дуэлях — это не ошибка
	err := svc.LeaveQueue(1)

	require.NoError(t, err)
}
