package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/yourusername/duel-api/internal/domain/entity"
	"github.com/yourusername/duel-api/internal/domain/repository"
	apperrors "github.com/yourusername/duel-api/internal/pkg/errors"
	"github.com/yourusername/duel-api/internal/service/duelmanager"
	"github.com/yourusername/duel-api/internal/websocket"
)

// Ключ кеша ID вопросов темы и срок его жизни
const (
	questionIDsCacheKeyFmt = "question_ids:theme:%s"
	questionIDsCacheTTL    = 5 * time.Minute
)

// AnswerInput — один ответ игрока в отправке
type AnswerInput struct {
	QuestionID uint `json:"question_id"`
	OptionID   uint `json:"option_id"`
	TimeMs     *int `json:"time_ms,omitempty"`
}

// AnswerFeedback — разбор одного вопроса для отправившего игрока
type AnswerFeedback struct {
	QuestionID      uint             `json:"question_id"`
	Prompt          string           `json:"prompt"`
	Explanation     string           `json:"explanation,omitempty"`
	ImageURL        string           `json:"image_url,omitempty"`
	Options         []FeedbackOption `json:"options"`
	ChosenOptionID  uint             `json:"chosen_option_id,omitempty"`
	CorrectOptionID uint             `json:"correct_option_id"`
	IsCorrect       bool             `json:"is_correct"`
}

// FeedbackOption — вариант ответа в разборе, без флага правильности:
// правильный вариант указывается отдельным полем CorrectOptionID
type FeedbackOption struct {
	ID         uint   `json:"id"`
	Label      string `json:"label"`
	OrderIndex int    `json:"order_index"`
}

// SubmitResult — результат отправки ответов
type SubmitResult struct {
	Score          int              `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	Feedback       []AnswerFeedback `json:"feedback"`
	DuelFinished   bool             `json:"duel_finished"`
}

// ActiveDuelInfo — активная дуэль пользователя для восстановления после реконнекта
type ActiveDuelInfo struct {
	Duel         *entity.Duel `json:"duel"`
	HasSubmitted bool         `json:"has_submitted"`
}

// DuelService управляет жизненным циклом дуэлей: создание, старт,
// отправка ответов, завершение с применением рейтингов, принудительное
// завершение по таймеру и зачистка просроченных
type DuelService struct {
	duelRepo     repository.DuelRepository
	userRepo     repository.UserRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	notifier     websocket.Notifier
	config       *duelmanager.Config
	scheduler    *duelmanager.Scheduler

	// Источник случайности для выборки вопросов; rand.Rand не потокобезопасен
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewDuelService создает новый сервис дуэлей. appCtx — контекст жизни
// приложения: от него наследуются таймеры FRENZY-дуэлей, которые обязаны
// пережить HTTP-запрос, взведший их.
func NewDuelService(
	appCtx context.Context,
	duelRepo repository.DuelRepository,
	userRepo repository.UserRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	notifier websocket.Notifier,
	config *duelmanager.Config,
) *DuelService {
	s := &DuelService{
		duelRepo:     duelRepo,
		userRepo:     userRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		notifier:     notifier,
		config:       config,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.scheduler = duelmanager.NewScheduler(appCtx, s.HandleTimeout)
	return s
}

// CreateWaitingDuel создает дуэль в статусе WAITING с создателем как единственным игроком
func (s *DuelService) CreateWaitingDuel(userID uint, theme, mode string) (*entity.Duel, error) {
	if mode != entity.DuelModeClassic && mode != entity.DuelModeFrenzy {
		return nil, fmt.Errorf("%w: unknown mode %q", apperrors.ErrValidation, mode)
	}
	if theme == "" {
		return nil, fmt.Errorf("%w: theme is required", apperrors.ErrValidation)
	}

	duel := &entity.Duel{
		Theme: theme,
		Mode:  mode,
	}
	if mode == entity.DuelModeFrenzy {
		duration := s.config.FrenzyDurationSec
		duel.DurationSec = &duration
	}

	if err := s.duelRepo.CreateWaiting(duel, userID); err != nil {
		return nil, fmt.Errorf("create waiting duel: %w", err)
	}

	log.Printf("[DuelService] Дуэль %s создана (тема=%s, режим=%s, создатель=%d)",
		duel.ID, theme, mode, userID)
	return duel, nil
}

// JoinAndStart присоединяет второго игрока к WAITING-дуэли и запускает её:
// фиксирует случайный набор вопросов темы, переводит статус в ONGOING,
// публикует duel:started и для FRENZY взводит таймер истечения.
func (s *DuelService) JoinAndStart(ctx context.Context, duelID string, joinerID uint, theme string) (*entity.Duel, error) {
	duel, err := s.duelRepo.GetByID(duelID)
	if err != nil {
		return nil, err
	}

	if duel.Theme != theme {
		return nil, fmt.Errorf("%w: duel theme is %q, not %q", apperrors.ErrValidation, duel.Theme, theme)
	}
	if duel.Status != entity.DuelStatusWaiting {
		return nil, fmt.Errorf("%w: duel %s is %s", apperrors.ErrInvalidState, duelID, duel.Status)
	}
	for _, p := range duel.Players {
		if p.UserID == joinerID {
			return nil, fmt.Errorf("%w: user %d already joined duel %s", apperrors.ErrConflict, joinerID, duelID)
		}
	}

	limit := s.config.QuestionLimit(duel.IsFrenzy())
	questionIDs, err := s.sampleQuestions(duel.Theme, limit)
	if err != nil {
		return nil, err
	}

	if err := s.duelRepo.JoinAndStart(duelID, joinerID, questionIDs); err != nil {
		return nil, err
	}

	duel, err = s.duelRepo.GetByID(duelID)
	if err != nil {
		return nil, err
	}

	// События публикуются строго после коммита. Дублируем в личные каналы:
	// клиент мог еще не успеть подписаться на канал дуэли.
	startedPayload := map[string]interface{}{
		"duel_id":      duel.ID,
		"theme":        duel.Theme,
		"duration_sec": duel.DurationSec,
	}
	s.notifier.Publish(websocket.DuelTopic(duel.ID), websocket.EventDuelStarted, startedPayload)
	for _, p := range duel.Players {
		s.notifier.Publish(websocket.UserTopic(p.UserID), websocket.EventDuelStarted, startedPayload)
	}

	if duel.DurationSec != nil {
		s.scheduler.ScheduleTimeout(duel.ID, time.Duration(*duel.DurationSec)*time.Second)
	}

	log.Printf("[DuelService] Дуэль %s запущена: игрок %d присоединился, %d вопросов",
		duel.ID, joinerID, len(questionIDs))
	return duel, nil
}

// sampleQuestions возвращает случайный набор ID вопросов темы.
// Список ID темы кешируется, выборка каждый раз новая.
func (s *DuelService) sampleQuestions(theme string, limit int) ([]uint, error) {
	cacheKey := fmt.Sprintf(questionIDsCacheKeyFmt, theme)

	var pool []uint
	if err := s.cacheRepo.GetJSON(cacheKey, &pool); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[DuelService] Ошибка чтения кеша вопросов темы %s: %v", theme, err)
		}
		pool, err = s.questionRepo.GetIDsByTheme(theme)
		if err != nil {
			return nil, fmt.Errorf("load question ids for theme %q: %w", theme, err)
		}
		if cacheErr := s.cacheRepo.SetJSON(cacheKey, pool, questionIDsCacheTTL); cacheErr != nil {
			log.Printf("[DuelService] Ошибка записи кеша вопросов темы %s: %v", theme, cacheErr)
		}
	}

	if len(pool) < limit {
		return nil, fmt.Errorf("%w: theme %q has %d questions, need %d",
			apperrors.ErrValidation, theme, len(pool), limit)
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return duelmanager.SampleIDs(pool, limit, s.rng)
}

// SubmitAnswers принимает ответы игрока, считает счет по авторитетным
// флагам правильности и, если оба игрока отправили, завершает дуэль
func (s *DuelService) SubmitAnswers(ctx context.Context, userID uint, duelID string, answers []AnswerInput) (*SubmitResult, error) {
	duel, err := s.duelRepo.GetByIDForUser(duelID, userID)
	if err != nil {
		return nil, err
	}
	if duel.Status != entity.DuelStatusOngoing {
		return nil, fmt.Errorf("%w: duel %s is %s", apperrors.ErrInvalidState, duelID, duel.Status)
	}

	submitted, err := s.duelRepo.HasSubmitted(duelID, userID)
	if err != nil {
		return nil, err
	}
	if submitted {
		return nil, fmt.Errorf("%w: user %d already submitted for duel %s", apperrors.ErrConflict, userID, duelID)
	}

	// Любой ответ на вопрос вне зафиксированного набора отклоняет всю отправку
	locked := make(map[uint]*entity.Question, len(duel.Questions))
	for i := range duel.Questions {
		dq := &duel.Questions[i]
		locked[dq.QuestionID] = dq.Question
	}
	byQuestion := make(map[uint]AnswerInput, len(answers))
	for _, a := range answers {
		if _, ok := locked[a.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: question %d is not part of duel %s",
				apperrors.ErrValidation, a.QuestionID, duelID)
		}
		byQuestion[a.QuestionID] = a
	}

	// Счет считается только по авторитетному флагу правильности варианта
	score := 0
	rows := make([]entity.DuelAnswer, 0, len(answers))
	for _, a := range answers {
		q := locked[a.QuestionID]
		if q != nil {
			if opt := q.OptionByID(a.OptionID); opt != nil && opt.IsCorrect {
				score++
			}
		}
		rows = append(rows, entity.DuelAnswer{
			QuestionID: a.QuestionID,
			OptionID:   a.OptionID,
			TimeMs:     a.TimeMs,
		})
	}

	if err := s.duelRepo.SaveAnswersAndScore(duelID, userID, rows, score); err != nil {
		if errors.Is(err, repository.ErrDuplicateAnswer) {
			return nil, fmt.Errorf("%w: user %d already submitted for duel %s", apperrors.ErrConflict, userID, duelID)
		}
		return nil, fmt.Errorf("save answers: %w", err)
	}
	log.Printf("[DuelService] Игрок %d отправил ответы в дуэли %s: счет %d/%d",
		userID, duelID, score, len(duel.Questions))

	// Перечитываем игроков: если оба счета зафиксированы, дуэль завершена
	players, err := s.duelRepo.GetPlayers(duelID)
	if err != nil {
		return nil, err
	}
	finished := false
	allSubmitted := true
	for _, p := range players {
		if !p.HasSubmitted() {
			allSubmitted = false
			break
		}
	}
	if allSubmitted && len(players) == 2 {
		if err := s.finishDuel(duelID, players); err != nil {
			return nil, err
		}
		finished = true
	}

	// Разбор вопросов возвращается и до завершения дуэли:
	// второй игрок может еще играть
	chosen := make(map[uint]uint, len(byQuestion))
	for qid, a := range byQuestion {
		chosen[qid] = a.OptionID
	}

	return &SubmitResult{
		Score:          score,
		TotalQuestions: len(duel.Questions),
		Feedback:       s.answerFeedback(duel, chosen),
		DuelFinished:   finished,
	}, nil
}

// answerFeedback строит разбор вопросов дуэли: текст, пояснение, варианты
// и выбор игрока (chosen: questionID → optionID). Флаг правильности
// вариантов наружу не отдается — только ID правильного варианта.
func (s *DuelService) answerFeedback(duel *entity.Duel, chosen map[uint]uint) []AnswerFeedback {
	feedback := make([]AnswerFeedback, 0, len(duel.Questions))
	for _, dq := range duel.Questions {
		q := dq.Question
		if q == nil {
			continue
		}
		fb := AnswerFeedback{
			QuestionID:  q.ID,
			Prompt:      q.Prompt,
			Explanation: q.Explanation,
			ImageURL:    q.ImageURL,
			Options:     make([]FeedbackOption, 0, len(q.Options)),
		}
		for _, opt := range q.Options {
			fb.Options = append(fb.Options, FeedbackOption{
				ID:         opt.ID,
				Label:      opt.Label,
				OrderIndex: opt.OrderIndex,
			})
		}
		if correct := q.CorrectOption(); correct != nil {
			fb.CorrectOptionID = correct.ID
		}
		if optID, ok := chosen[q.ID]; ok {
			fb.ChosenOptionID = optID
			fb.IsCorrect = optID == fb.CorrectOptionID
		}
		feedback = append(feedback, fb)
	}
	return feedback
}

// finishDuel определяет исход, применяет рейтинги и публикует duel:finished.
// Условное обновление статуса защищает от гонки двух одновременных
// отправителей: рейтинги применяются ровно один раз.
func (s *DuelService) finishDuel(duelID string, players []entity.DuelPlayer) error {
	if len(players) != 2 {
		return fmt.Errorf("duel %s has %d players, expected 2", duelID, len(players))
	}

	scores := [2]int{}
	for i, p := range players {
		if p.Score != nil {
			scores[i] = *p.Score
		}
	}

	isDraw := scores[0] == scores[1]
	var winnerID *uint
	outcomes := [2]Outcome{OutcomeDraw, OutcomeDraw}
	if !isDraw {
		winnerIdx := 0
		if scores[1] > scores[0] {
			winnerIdx = 1
		}
		outcomes[winnerIdx] = OutcomeWin
		outcomes[1-winnerIdx] = OutcomeLoss
		winnerID = &players[winnerIdx].UserID
	}

	ratings, err := s.userRepo.GetRatings([]uint{players[0].UserID, players[1].UserID})
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}

	// Дельты считаются от рейтингов до матча для обоих игроков
	deltas := [2]int{}
	updates := [2]repository.RatingUpdate{}
	for i := range players {
		own := ratings[players[i].UserID]
		opp := ratings[players[1-i].UserID]
		deltas[i] = RatingDelta(own, opp, outcomes[i])
		updates[i] = repository.RatingUpdate{
			UserID:    players[i].UserID,
			NewRating: ApplyRatingDelta(own, deltas[i]),
			Won:       outcomes[i] == OutcomeWin,
		}
	}

	if err := s.duelRepo.FinishAndApplyRatings(duelID, updates); err != nil {
		if errors.Is(err, repository.ErrDuelNotOngoing) {
			// Конкурирующее завершение выиграло гонку: рейтинги уже применены
			log.Printf("[DuelService] Дуэль %s уже завершена другим путем", duelID)
			return nil
		}
		return fmt.Errorf("finish duel: %w", err)
	}

	s.scheduler.Cancel(duelID)

	playerResults := make([]map[string]interface{}, 0, 2)
	for i, p := range players {
		playerResults = append(playerResults, map[string]interface{}{
			"user_id":   p.UserID,
			"score":     scores[i],
			"elo_delta": deltas[i],
		})
	}
	finishedPayload := map[string]interface{}{
		"duel_id":   duelID,
		"players":   playerResults,
		"winner_id": winnerID,
		"is_draw":   isDraw,
	}
	s.notifier.Publish(websocket.DuelTopic(duelID), websocket.EventDuelFinished, finishedPayload)
	for _, p := range players {
		s.notifier.Publish(websocket.UserTopic(p.UserID), websocket.EventDuelFinished, finishedPayload)
	}

	log.Printf("[DuelService] Дуэль %s завершена: счета %d:%d, ничья=%v",
		duelID, scores[0], scores[1], isDraw)
	return nil
}

// HandleTimeout вызывается планировщиком по истечении времени FRENZY-дуэли.
// За игроков без отправки подаются пустые ответы обычным путем, чтобы
// завершение и рейтинги сработали единообразно.
func (s *DuelService) HandleTimeout(ctx context.Context, duelID string) {
	duel, err := s.duelRepo.GetByID(duelID)
	if err != nil {
		log.Printf("[DuelService] Таймаут дуэли %s: ошибка загрузки: %v", duelID, err)
		return
	}
	if duel.Status != entity.DuelStatusOngoing {
		// Дуэль уже завершилась обычным путем или зачисткой
		return
	}

	timeoutPayload := map[string]interface{}{"duel_id": duelID}
	s.notifier.Publish(websocket.DuelTopic(duelID), websocket.EventDuelTimeout, timeoutPayload)
	for _, p := range duel.Players {
		s.notifier.Publish(websocket.UserTopic(p.UserID), websocket.EventDuelTimeout, timeoutPayload)
	}

	for _, p := range duel.Players {
		if p.HasSubmitted() {
			continue
		}
		if _, err := s.SubmitAnswers(ctx, p.UserID, duelID, nil); err != nil {
			// Conflict означает, что игрок успел отправить сам — это не сбой
			if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrInvalidState) {
				continue
			}
			log.Printf("[DuelService] Таймаут дуэли %s: автоотправка за игрока %d не удалась: %v",
				duelID, p.UserID, err)
		}
	}
}

// LeaveDuel выводит игрока из завершенной дуэли; пустая дуэль удаляется
func (s *DuelService) LeaveDuel(userID uint, duelID string) error {
	duel, err := s.duelRepo.GetByIDForUser(duelID, userID)
	if err != nil {
		return err
	}
	if duel.Status != entity.DuelStatusFinished {
		return fmt.Errorf("%w: cannot leave duel %s in status %s", apperrors.ErrInvalidState, duelID, duel.Status)
	}

	if err := s.duelRepo.RemovePlayer(duelID, userID); err != nil {
		return err
	}

	count, err := s.duelRepo.CountPlayers(duelID)
	if err != nil {
		return err
	}
	if count == 0 {
		if err := s.duelRepo.Delete(duelID); err != nil {
			return err
		}
		log.Printf("[DuelService] Дуэль %s удалена: игроков не осталось", duelID)
	}
	return nil
}

// GetActiveDuel возвращает текущую WAITING или ONGOING дуэль пользователя.
// Используется для восстановления после обрыва соединения; клиент после
// этого заново подписывается на каналы событий.
func (s *DuelService) GetActiveDuel(userID uint) (*ActiveDuelInfo, error) {
	duel, err := s.duelRepo.FindActiveForUser(userID)
	if err != nil {
		return nil, err
	}

	submitted := false
	if duel.Status == entity.DuelStatusOngoing {
		submitted, err = s.duelRepo.HasSubmitted(duel.ID, userID)
		if err != nil {
			return nil, err
		}
	}

	return &ActiveDuelInfo{Duel: duel, HasSubmitted: submitted}, nil
}

// GetDuelDetail возвращает дуэль с игроками и вопросами, если пользователь —
// участник, плюс разбор его сохраненных ответов (nil, пока он не отправил).
func (s *DuelService) GetDuelDetail(duelID string, userID uint) (*entity.Duel, []AnswerFeedback, error) {
	duel, err := s.duelRepo.GetByIDForUser(duelID, userID)
	if err != nil {
		return nil, nil, err
	}

	answers, err := s.duelRepo.GetAnswers(duelID, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(answers) == 0 {
		return duel, nil, nil
	}

	chosen := make(map[uint]uint, len(answers))
	for _, a := range answers {
		chosen[a.QuestionID] = a.OptionID
	}
	return duel, s.answerFeedback(duel, chosen), nil
}

// IsParticipant сообщает, является ли пользователь участником дуэли
func (s *DuelService) IsParticipant(duelID string, userID uint) (bool, error) {
	_, err := s.duelRepo.GetByIDForUser(duelID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CancelWaitingDuelsForUser отменяет все WAITING-дуэли пользователя.
// Используется при выходе из очереди, чтобы не оставлять осиротевшие дуэли.
func (s *DuelService) CancelWaitingDuelsForUser(userID uint) error {
	duels, err := s.duelRepo.FindWaitingForUser(userID)
	if err != nil {
		return err
	}
	for _, d := range duels {
		if err := s.duelRepo.UpdateStatus(d.ID, entity.DuelStatusCanceled); err != nil {
			return err
		}
		log.Printf("[DuelService] Дуэль %s отменена: игрок %d покинул очередь", d.ID, userID)
	}
	return nil
}

// ExpireStale принудительно завершает ONGOING-дуэли старше таймаута и
// отменяет залежавшиеся WAITING-дуэли. Возвращает количество измененных.
// Повторный запуск над теми же дуэлями идемпотентен.
func (s *DuelService) ExpireStale() (int, error) {
	now := time.Now()
	cutoff := now.Add(-s.config.DuelTimeout)

	expired, err := s.duelRepo.ExpireOngoing(cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("expire ongoing duels: %w", err)
	}
	for _, duelID := range expired {
		s.scheduler.Cancel(duelID)
		s.notifier.Publish(websocket.DuelTopic(duelID), websocket.EventDuelExpired, map[string]interface{}{
			"duel_id": duelID,
			"reason":  "timeout",
		})
	}

	canceled, err := s.duelRepo.CancelWaiting(cutoff)
	if err != nil {
		return len(expired), fmt.Errorf("cancel stale waiting duels: %w", err)
	}

	changed := len(expired) + int(canceled)
	if changed > 0 {
		log.Printf("[DuelService] Зачистка: %d ONGOING завершено, %d WAITING отменено",
			len(expired), canceled)
	}
	return changed, nil
}
