package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/duel-api/internal/domain/entity"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetIDsByTheme возвращает все ID вопросов темы
func (r *QuestionRepo) GetIDsByTheme(theme string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entity.Question{}).
		Where("theme = ?", theme).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
