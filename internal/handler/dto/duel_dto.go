package dto

import (
	"time"

	"github.com/yourusername/duel-api/internal/domain/entity"
)

// DuelOptionDTO — вариант ответа без флага правильности
type DuelOptionDTO struct {
	ID         uint   `json:"id"`
	Label      string `json:"label"`
	OrderIndex int    `json:"order_index"`
}

// DuelQuestionDTO — вопрос дуэли в формате для клиента.
// Правильность вариантов и пояснение не отдаются до завершения дуэли.
type DuelQuestionDTO struct {
	QuestionID uint            `json:"question_id"`
	OrderIndex int             `json:"order_index"`
	Prompt     string          `json:"prompt"`
	ImageURL   string          `json:"image_url,omitempty"`
	Options    []DuelOptionDTO `json:"options"`
}

// DuelPlayerDTO — участник дуэли. Score == nil, пока игрок не отправил ответы.
type DuelPlayerDTO struct {
	UserID   uint      `json:"user_id"`
	Score    *int      `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// DuelResponse представляет дуэль в формате для ответа клиенту
type DuelResponse struct {
	ID          string            `json:"id"`
	Theme       string            `json:"theme"`
	Mode        string            `json:"mode"`
	Status      string            `json:"status"`
	DurationSec *int              `json:"duration_sec,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
	Players     []DuelPlayerDTO   `json:"players"`
	Questions   []DuelQuestionDTO `json:"questions,omitempty"`
}

// NewDuelResponse создает DTO дуэли. Вопросы включаются только если они
// были загружены (GetByIDForUser делает это для участников ONGOING-дуэли).
func NewDuelResponse(d *entity.Duel) *DuelResponse {
	resp := &DuelResponse{
		ID:          d.ID,
		Theme:       d.Theme,
		Mode:        d.Mode,
		Status:      d.Status,
		DurationSec: d.DurationSec,
		CreatedAt:   d.CreatedAt,
		StartedAt:   d.StartedAt,
		FinishedAt:  d.FinishedAt,
		Players:     make([]DuelPlayerDTO, 0, len(d.Players)),
	}

	for _, p := range d.Players {
		resp.Players = append(resp.Players, DuelPlayerDTO{
			UserID:   p.UserID,
			Score:    p.Score,
			JoinedAt: p.JoinedAt,
		})
	}

	for _, dq := range d.Questions {
		if dq.Question == nil {
			continue
		}
		qDTO := DuelQuestionDTO{
			QuestionID: dq.QuestionID,
			OrderIndex: dq.OrderIndex,
			Prompt:     dq.Question.Prompt,
			ImageURL:   dq.Question.ImageURL,
			Options:    make([]DuelOptionDTO, 0, len(dq.Question.Options)),
		}
		for _, opt := range dq.Question.Options {
			qDTO.Options = append(qDTO.Options, DuelOptionDTO{
				ID:         opt.ID,
				Label:      opt.Label,
				OrderIndex: opt.OrderIndex,
			})
		}
		resp.Questions = append(resp.Questions, qDTO)
	}

	return resp
}
