package entity

import (
	"time"
)

// DuelAnswer представляет ответ игрока на вопрос дуэли.
// Уникальность (duel_id, player_user_id, question_id) — граница
// идемпотентности отправки: повторная вставка отклоняется БД.
type DuelAnswer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DuelID       string    `gorm:"size:36;not null;uniqueIndex:idx_duel_answer_once,priority:1" json:"duel_id"`
	PlayerUserID uint      `gorm:"not null;uniqueIndex:idx_duel_answer_once,priority:2" json:"player_user_id"`
	QuestionID   uint      `gorm:"not null;uniqueIndex:idx_duel_answer_once,priority:3" json:"question_id"`
	OptionID     uint      `gorm:"not null" json:"option_id"`
	TimeMs       *int      `json:"time_ms,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (DuelAnswer) TableName() string {
	return "duel_answers"
}
