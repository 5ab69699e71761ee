package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/duel-api/internal/handler/dto"
	"github.com/yourusername/duel-api/internal/service"
)

// DuelHandler обрабатывает запросы, связанные с дуэлями
type DuelHandler struct {
	duelService *service.DuelService
}

// NewDuelHandler создает новый обработчик дуэлей
func NewDuelHandler(duelService *service.DuelService) *DuelHandler {
	return &DuelHandler{duelService: duelService}
}

// GetActiveDuel возвращает текущую активную (WAITING или ONGOING) дуэль
// пользователя. Используется клиентом для восстановления после реконнекта.
func (h *DuelHandler) GetActiveDuel(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	info, err := h.duelService.GetActiveDuel(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"duel":          dto.NewDuelResponse(info.Duel),
		"has_submitted": info.HasSubmitted,
	})
}

// GetDuel возвращает дуэль с игроками и вопросами, а также разбор
// сохраненных ответов запрашивающего игрока, если он уже отправил.
// Дуэль видна только ее участникам; для остальных — 404.
func (h *DuelHandler) GetDuel(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	duelID := c.MustGet("duelID").(string)

	duel, answers, err := h.duelService.GetDuelDetail(duelID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"duel":    dto.NewDuelResponse(duel),
		"answers": answers,
	})
}

// SubmitAnswersRequest представляет запрос на отправку ответов дуэли
type SubmitAnswersRequest struct {
	Answers []service.AnswerInput `json:"answers" binding:"required"`
}

// SubmitAnswers обрабатывает единовременную отправку всех ответов игрока.
// Повторная отправка отклоняется с 409; частичная отправка допустима —
// неотвеченные вопросы считаются неверными.
func (h *DuelHandler) SubmitAnswers(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	duelID := c.MustGet("duelID").(string)

	var req SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.duelService.SubmitAnswers(c.Request.Context(), userID, duelID, req.Answers)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LeaveDuel обрабатывает выход игрока из завершенной дуэли; когда выходит
// последний игрок, дуэль удаляется. Покинуть ONGOING-дуэль нельзя.
func (h *DuelHandler) LeaveDuel(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	duelID := c.MustGet("duelID").(string)

	if err := h.duelService.LeaveDuel(userID, duelID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left duel"})
}
