package entity

import (
	"time"
)

// Question представляет вопрос из контентного хранилища.
// Ядро дуэлей только читает вопросы; управление контентом — внешняя система.
type Question struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Theme       string    `gorm:"size:100;not null;index" json:"theme"`
	Slug        string    `gorm:"size:150;not null;uniqueIndex" json:"slug"`
	Prompt      string    `gorm:"size:500;not null" json:"prompt"`
	Explanation string    `gorm:"size:1000;not null;default:''" json:"explanation,omitempty"`
	ImageURL    string    `gorm:"size:255;not null;default:''" json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Options []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// CorrectOption возвращает правильный вариант ответа или nil, если
// варианты не загружены
func (q *Question) CorrectOption() *QuestionOption {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// OptionByID находит вариант ответа по его ID среди загруженных вариантов
func (q *Question) OptionByID(optionID uint) *QuestionOption {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i]
		}
	}
	return nil
}

// QuestionOption представляет вариант ответа на вопрос.
// Флаг IsCorrect — авторитетный источник правильности; клиенту он не отдается.
type QuestionOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Label      string `gorm:"size:300;not null" json:"label"`
	OrderIndex int    `gorm:"not null;default:0" json:"order_index"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"-"` // Скрыто от клиента
}

// TableName определяет имя таблицы для GORM
func (QuestionOption) TableName() string {
	return "question_options"
}
