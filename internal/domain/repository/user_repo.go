package repository

import (
	"github.com/yourusername/duel-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	GetByID(id uint) (*entity.User, error)
	// GetRating возвращает текущий рейтинг пользователя
	GetRating(userID uint) (int, error)
	// GetRatings возвращает рейтинги набора пользователей (map userID → rating)
	GetRatings(userIDs []uint) (map[uint]int, error)
	Update(user *entity.User) error
	// GetLeaderboard возвращает пользователей по убыванию рейтинга с пагинацией и общим количеством
	GetLeaderboard(limit, offset int) ([]entity.User, int64, error)
}
