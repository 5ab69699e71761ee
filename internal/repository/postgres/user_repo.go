package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/duel-api/internal/domain/entity"
	apperrors "github.com/yourusername/duel-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetRating возвращает текущий рейтинг пользователя
func (r *UserRepo) GetRating(userID uint) (int, error) {
	var user entity.User
	err := r.db.Select("rating").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrNotFound
		}
		return 0, err
	}
	return user.Rating, nil
}

// GetRatings возвращает рейтинги набора пользователей
func (r *UserRepo) GetRatings(userIDs []uint) (map[uint]int, error) {
	type row struct {
		ID     uint
		Rating int
	}
	var rows []row
	err := r.db.Model(&entity.User{}).
		Select("id", "rating").
		Where("id IN ?", userIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ratings := make(map[uint]int, len(rows))
	for _, rw := range rows {
		ratings[rw.ID] = rw.Rating
	}
	return ratings, nil
}

// Update обновляет информацию о пользователе
func (r *UserRepo) Update(user *entity.User) error {
	return r.db.Save(user).Error
}

// GetLeaderboard возвращает пользователей по убыванию рейтинга с total count
func (r *UserRepo) GetLeaderboard(limit, offset int) ([]entity.User, int64, error) {
	var users []entity.User
	var total int64

	if err := r.db.Model(&entity.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.
		Order("rating DESC, id").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
