package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/duel-api/internal/domain/entity"
	"github.com/yourusername/duel-api/internal/service"
)

// QueueHandler обрабатывает запросы очереди подбора соперника
type QueueHandler struct {
	matchmakingService *service.MatchmakingService
}

// NewQueueHandler создает новый обработчик очереди подбора
func NewQueueHandler(matchmakingService *service.MatchmakingService) *QueueHandler {
	return &QueueHandler{matchmakingService: matchmakingService}
}

// JoinQueueRequest представляет запрос на вход в очередь подбора
type JoinQueueRequest struct {
	Theme string `json:"theme" binding:"required,min=1,max=100"`
	Mode  string `json:"mode" binding:"omitempty,oneof=CLASSIC FRENZY"`
}

// JoinQueue обрабатывает вход пользователя в очередь подбора.
// При наличии подходящего соперника дуэль стартует немедленно;
// иначе пользователь встает в очередь с новой WAITING-дуэлью.
func (h *QueueHandler) JoinQueue(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req JoinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Mode == "" {
		req.Mode = entity.DuelModeClassic
	}

	result, err := h.matchmakingService.JoinQueue(c.Request.Context(), userID, req.Theme, req.Mode)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LeaveQueue обрабатывает выход пользователя из очереди подбора.
// Выход идемпотентен: отсутствие пользователя в очереди не является ошибкой.
func (h *QueueHandler) LeaveQueue(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	if err := h.matchmakingService.LeaveQueue(userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left matchmaking queue"})
}

// QueueSize возвращает текущий размер корзины очереди для темы и режима
func (h *QueueHandler) QueueSize(c *gin.Context) {
	theme := c.Query("theme")
	if theme == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "theme query parameter is required"})
		return
	}
	mode := c.DefaultQuery("mode", entity.DuelModeClassic)

	c.JSON(http.StatusOK, gin.H{
		"theme": theme,
		"mode":  mode,
		"size":  h.matchmakingService.QueueSize(theme, mode),
	})
}
