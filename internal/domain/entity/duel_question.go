package entity

// DuelQuestion — вопрос, зафиксированный за дуэлью при старте.
// Набор вопросов неизменяем после создания; вопрос встречается
// в дуэли не более одного раза.
type DuelQuestion struct {
	DuelID     string `gorm:"primaryKey;size:36" json:"duel_id"`
	QuestionID uint   `gorm:"primaryKey" json:"question_id"`
	OrderIndex int    `gorm:"not null" json:"order_index"`

	Question *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (DuelQuestion) TableName() string {
	return "duel_questions"
}
