package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Статусы дуэли
const (
	DuelStatusWaiting  = "WAITING"
	DuelStatusOngoing  = "ONGOING"
	DuelStatusFinished = "FINISHED"
	DuelStatusCanceled = "CANCELED"
)

// Режимы дуэли
const (
	// DuelModeClassic — без таймера, небольшое фиксированное число вопросов
	DuelModeClassic = "CLASSIC"

	// DuelModeFrenzy — фиксированная длительность, больший пул вопросов,
	// принудительная авто-отправка по истечении времени
	DuelModeFrenzy = "FRENZY"
)

// Duel представляет дуэль 1 на 1 между двумя пользователями
type Duel struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Theme       string     `gorm:"size:100;not null;index" json:"theme"`
	Mode        string     `gorm:"size:20;not null;default:'CLASSIC'" json:"mode"`
	DurationSec *int       `json:"duration_sec,omitempty"`
	Status      string     `gorm:"size:20;not null;default:'WAITING';index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `gorm:"type:timestamp" json:"started_at,omitempty"`
	FinishedAt  *time.Time `gorm:"type:timestamp" json:"finished_at,omitempty"`

	Players   []DuelPlayer   `gorm:"foreignKey:DuelID" json:"players,omitempty"`
	Questions []DuelQuestion `gorm:"foreignKey:DuelID" json:"questions,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Duel) TableName() string {
	return "duels"
}

// BeforeCreate генерирует UUID для новой дуэли
func (d *Duel) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// IsActive возвращает true, если дуэль еще не достигла терминального статуса.
// WAITING и ONGOING считаются активными; FINISHED и CANCELED — терминальные.
func (d *Duel) IsActive() bool {
	return d.Status == DuelStatusWaiting || d.Status == DuelStatusOngoing
}

// IsFrenzy возвращает true для дуэли в режиме FRENZY
func (d *Duel) IsFrenzy() bool {
	return d.Mode == DuelModeFrenzy
}
