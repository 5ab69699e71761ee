package entity

import (
	"time"
)

// DuelPlayer представляет участие пользователя в дуэли.
// Score == nil означает, что игрок еще не отправил свои ответы —
// это флаг завершения на уровне игрока.
type DuelPlayer struct {
	DuelID   string    `gorm:"primaryKey;size:36" json:"duel_id"`
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	JoinedAt time.Time `gorm:"not null;autoCreateTime" json:"joined_at"`
	Score    *int      `json:"score"`
}

// TableName определяет имя таблицы для GORM
func (DuelPlayer) TableName() string {
	return "duel_players"
}

// HasSubmitted возвращает true, если игрок уже отправил ответы
func (p *DuelPlayer) HasSubmitted() bool {
	return p.Score != nil
}
