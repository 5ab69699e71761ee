package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/duel-api/internal/domain/entity"
	"github.com/yourusername/duel-api/internal/domain/repository"
	apperrors "github.com/yourusername/duel-api/internal/pkg/errors"
)

// DuelRepo реализует repository.DuelRepository
type DuelRepo struct {
	db *gorm.DB
}

// NewDuelRepo создает новый репозиторий дуэлей
func NewDuelRepo(db *gorm.DB) *DuelRepo {
	return &DuelRepo{db: db}
}

// CreateWaiting создает дуэль в статусе WAITING вместе с записью создателя
func (r *DuelRepo) CreateWaiting(duel *entity.Duel, creatorID uint) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	duel.Status = entity.DuelStatusWaiting
	if err := tx.Create(duel).Error; err != nil {
		tx.Rollback()
		return err
	}

	player := entity.DuelPlayer{DuelID: duel.ID, UserID: creatorID}
	if err := tx.Create(&player).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetByID возвращает дуэль с игроками и упорядоченными вопросами
func (r *DuelRepo) GetByID(duelID string) (*entity.Duel, error) {
	var duel entity.Duel
	err := r.db.
		Preload("Players").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("duel_questions.order_index")
		}).
		Preload("Questions.Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.order_index")
		}).
		First(&duel, "id = ?", duelID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &duel, nil
}

// GetByIDForUser возвращает дуэль, только если пользователь — её участник.
// Чужая дуэль неотличима от несуществующей.
func (r *DuelRepo) GetByIDForUser(duelID string, userID uint) (*entity.Duel, error) {
	var membership entity.DuelPlayer
	err := r.db.
		Where("duel_id = ? AND user_id = ?", duelID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(duelID)
}

// FindActiveForUser возвращает WAITING или ONGOING дуэль пользователя
func (r *DuelRepo) FindActiveForUser(userID uint) (*entity.Duel, error) {
	return r.findForUserByStatuses(userID,
		[]string{entity.DuelStatusWaiting, entity.DuelStatusOngoing})
}

// FindOngoingForUser возвращает ONGOING дуэль пользователя
func (r *DuelRepo) FindOngoingForUser(userID uint) (*entity.Duel, error) {
	return r.findForUserByStatuses(userID, []string{entity.DuelStatusOngoing})
}

func (r *DuelRepo) findForUserByStatuses(userID uint, statuses []string) (*entity.Duel, error) {
	var duel entity.Duel
	err := r.db.
		Joins("JOIN duel_players ON duel_players.duel_id = duels.id").
		Where("duel_players.user_id = ? AND duels.status IN ?", userID, statuses).
		Order("duels.created_at DESC").
		First(&duel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(duel.ID)
}

// FindWaitingForUserAndTheme возвращает WAITING дуэль пользователя по теме и режиму
func (r *DuelRepo) FindWaitingForUserAndTheme(userID uint, theme, mode string) (*entity.Duel, error) {
	var duel entity.Duel
	err := r.db.
		Joins("JOIN duel_players ON duel_players.duel_id = duels.id").
		Where("duel_players.user_id = ? AND duels.status = ? AND duels.theme = ? AND duels.mode = ?",
			userID, entity.DuelStatusWaiting, theme, mode).
		First(&duel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &duel, nil
}

// FindWaitingForUser возвращает все WAITING дуэли пользователя
func (r *DuelRepo) FindWaitingForUser(userID uint) ([]entity.Duel, error) {
	var duels []entity.Duel
	err := r.db.
		Joins("JOIN duel_players ON duel_players.duel_id = duels.id").
		Where("duel_players.user_id = ? AND duels.status = ?", userID, entity.DuelStatusWaiting).
		Find(&duels).Error
	return duels, err
}

// JoinAndStart атомарно присоединяет второго игрока и запускает дуэль.
// Условный переход WAITING → ONGOING: RowsAffected == 0 означает, что дуэль
// уже запущена или отменена — вся транзакция откатывается.
func (r *DuelRepo) JoinAndStart(duelID string, joinerID uint, questionIDs []uint) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	player := entity.DuelPlayer{DuelID: duelID, UserID: joinerID}
	if err := tx.Create(&player).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return err
	}

	for i, qid := range questionIDs {
		dq := entity.DuelQuestion{DuelID: duelID, QuestionID: qid, OrderIndex: i}
		if err := tx.Create(&dq).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	now := time.Now()
	result := tx.Model(&entity.Duel{}).
		Where("id = ? AND status = ?", duelID, entity.DuelStatusWaiting).
		Updates(map[string]interface{}{
			"status":     entity.DuelStatusOngoing,
			"started_at": now,
		})
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("%w: duel %s is not waiting", apperrors.ErrInvalidState, duelID)
	}

	return tx.Commit().Error
}

// GetPlayers возвращает записи игроков дуэли
func (r *DuelRepo) GetPlayers(duelID string) ([]entity.DuelPlayer, error) {
	var players []entity.DuelPlayer
	err := r.db.
		Where("duel_id = ?", duelID).
		Order("joined_at").
		Find(&players).Error
	return players, err
}

// HasSubmitted сообщает, зафиксирован ли счет игрока в дуэли
func (r *DuelRepo) HasSubmitted(duelID string, userID uint) (bool, error) {
	var player entity.DuelPlayer
	err := r.db.
		Where("duel_id = ? AND user_id = ?", duelID, userID).
		First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrNotFound
		}
		return false, err
	}
	return player.HasSubmitted(), nil
}

// GetAnswers возвращает сохраненные ответы игрока в дуэли
func (r *DuelRepo) GetAnswers(duelID string, userID uint) ([]entity.DuelAnswer, error) {
	var answers []entity.DuelAnswer
	err := r.db.
		Where("duel_id = ? AND player_user_id = ?", duelID, userID).
		Find(&answers).Error
	return answers, err
}

// SaveAnswersAndScore атомарно сохраняет ответы игрока и его счет.
// Уникальный индекс (duel_id, player_user_id, question_id) — граница
// идемпотентности: повторная отправка дает ErrDuplicateAnswer.
func (r *DuelRepo) SaveAnswersAndScore(duelID string, userID uint, answers []entity.DuelAnswer, score int) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	for i := range answers {
		answers[i].DuelID = duelID
		answers[i].PlayerUserID = userID
		if err := tx.Create(&answers[i]).Error; err != nil {
			tx.Rollback()
			if isUniqueViolation(err) {
				return repository.ErrDuplicateAnswer
			}
			return err
		}
	}

	result := tx.Model(&entity.DuelPlayer{}).
		Where("duel_id = ? AND user_id = ? AND score IS NULL", duelID, userID).
		Update("score", score)
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return repository.ErrDuplicateAnswer
	}

	return tx.Commit().Error
}

// FinishAndApplyRatings атомарно завершает дуэль и применяет рейтинги.
// Условный переход ONGOING → FINISHED: при RowsAffected == 0 конкурирующее
// завершение уже выиграло гонку, рейтинги не трогаются.
func (r *DuelRepo) FinishAndApplyRatings(duelID string, updates [2]repository.RatingUpdate) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	now := time.Now()
	result := tx.Model(&entity.Duel{}).
		Where("id = ? AND status = ?", duelID, entity.DuelStatusOngoing).
		Updates(map[string]interface{}{
			"status":      entity.DuelStatusFinished,
			"finished_at": now,
		})
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return repository.ErrDuelNotOngoing
	}

	for _, upd := range updates {
		fields := map[string]interface{}{
			"rating":       upd.NewRating,
			"games_played": gorm.Expr("games_played + 1"),
		}
		if upd.Won {
			fields["wins_count"] = gorm.Expr("wins_count + 1")
		}
		if err := tx.Model(&entity.User{}).
			Where("id = ?", upd.UserID).
			Updates(fields).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// UpdateStatus обновляет статус дуэли
func (r *DuelRepo) UpdateStatus(duelID string, status string) error {
	return r.db.Model(&entity.Duel{}).
		Where("id = ?", duelID).
		Update("status", status).
		Error
}

// RemovePlayer удаляет игрока из дуэли
func (r *DuelRepo) RemovePlayer(duelID string, userID uint) error {
	return r.db.
		Where("duel_id = ? AND user_id = ?", duelID, userID).
		Delete(&entity.DuelPlayer{}).Error
}

// CountPlayers возвращает количество игроков в дуэли
func (r *DuelRepo) CountPlayers(duelID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.DuelPlayer{}).
		Where("duel_id = ?", duelID).
		Count(&count).Error
	return count, err
}

// Delete удаляет дуэль вместе с зависимыми записями
func (r *DuelRepo) Delete(duelID string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("duel_id = ?", duelID).Delete(&entity.DuelAnswer{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("duel_id = ?", duelID).Delete(&entity.DuelQuestion{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("duel_id = ?", duelID).Delete(&entity.DuelPlayer{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&entity.Duel{}, "id = ?", duelID).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// ExpireOngoing переводит в FINISHED все ONGOING дуэли, начатые раньше cutoff
func (r *DuelRepo) ExpireOngoing(cutoff time.Time, now time.Time) ([]string, error) {
	var ids []string
	err := r.db.Model(&entity.Duel{}).
		Where("status = ? AND started_at < ?", entity.DuelStatusOngoing, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// Условный WHERE повторяется: дуэль могла завершиться между Pluck и Update
	var expired []string
	for _, id := range ids {
		result := r.db.Model(&entity.Duel{}).
			Where("id = ? AND status = ?", id, entity.DuelStatusOngoing).
			Updates(map[string]interface{}{
				"status":      entity.DuelStatusFinished,
				"finished_at": now,
			})
		if result.Error != nil {
			return expired, result.Error
		}
		if result.RowsAffected > 0 {
			expired = append(expired, id)
		}
	}
	return expired, nil
}

// CancelWaiting переводит в CANCELED все WAITING дуэли, созданные раньше cutoff
func (r *DuelRepo) CancelWaiting(cutoff time.Time) (int64, error) {
	result := r.db.Model(&entity.Duel{}).
		Where("status = ? AND created_at < ?", entity.DuelStatusWaiting, cutoff).
		Update("status", entity.DuelStatusCanceled)
	return result.RowsAffected, result.Error
}
