package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/duel-api/internal/service"
	"github.com/yourusername/duel-api/internal/websocket"
	"github.com/yourusername/duel-api/pkg/auth"
)

// WSHandler обрабатывает WebSocket соединения
type WSHandler struct {
	wsHub       *websocket.Hub
	wsManager   *websocket.Manager
	duelService *service.DuelService
	jwtService  *auth.JWTService
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(
	wsHub *websocket.Hub,
	wsManager *websocket.Manager,
	duelService *service.DuelService,
	jwtService *auth.JWTService,
) *WSHandler {
	handler := &WSHandler{
		wsHub:       wsHub,
		wsManager:   wsManager,
		duelService: duelService,
		jwtService:  jwtService,
	}

	// Регистрируем обработчики сообщений один раз при создании обработчика
	handler.registerMessageHandlers()

	return handler
}

// Metrics возвращает счетчики WebSocket-подсистемы
func (h *WSHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.wsManager.GetMetrics())
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Пустой Origin — не браузерный клиент (мобильное приложение, curl и т.д.)
		if origin == "" {
			return true
		}

		// Список разрешенных origin (синхронизирован с CORS в main.go)
		allowedOrigins := []string{
			"http://localhost:5173",
			"http://localhost:8000",
			"http://localhost:3000",
		}

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
		return false
	},
	EnableCompression: true,
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// Аутентификация — по JWT в query-параметре token: браузерный клиент
// не может выставить заголовок Authorization при апгрейде.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	// НЕ логируем токен — это секретные данные аутентификации
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication token parameter"})
		return
	}

	claims, err := h.jwtService.ParseToken(token)
	if err != nil {
		log.Printf("WebSocket: Invalid or expired token - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}

	log.Printf("WebSocket: Connection upgraded for UserID: %d", claims.UserID)

	client := websocket.NewClient(h.wsHub, conn, fmt.Sprintf("%d", claims.UserID))
	client.StartPumps(h.wsManager.HandleMessage)
}

// registerMessageHandlers регистрирует обработчики для различных типов сообщений
func (h *WSHandler) registerMessageHandlers() {
	// Подписка на события дуэли. Подписка разрешена только участникам.
	h.wsManager.RegisterHandler(websocket.MessageDuelJoin, func(data json.RawMessage, client *websocket.Client) error {
		var joinEvent struct {
			DuelID string `json:"duel_id"`
		}
		// Ошибка парсинга — фатальна для этого сообщения
		if err := json.Unmarshal(data, &joinEvent); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга %s: %v, Data: %s", websocket.MessageDuelJoin, err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse duel:join event")
			return fmt.Errorf("failed to parse duel:join event: %w", err)
		}
		if joinEvent.DuelID == "" {
			h.wsManager.SendErrorToClient(client, "invalid_format", "duel_id is required")
			return nil
		}

		userID := client.UserIDUint()
		ok, err := h.duelService.IsParticipant(joinEvent.DuelID, userID)
		if err != nil {
			log.Printf("[WSHandler] Ошибка проверки участия User %d в дуэли %s: %v", userID, joinEvent.DuelID, err)
			h.wsManager.SendErrorToClient(client, "subscribe_error", "Failed to verify duel membership")
			return nil // Не закрываем соединение из-за временной ошибки
		}
		if !ok {
			h.wsManager.SendErrorToClient(client, "forbidden", "Not a participant of this duel")
			return nil
		}

		h.wsManager.SubscribeClientToDuel(client, joinEvent.DuelID)
		log.Printf("[WSHandler] User %s подписан на дуэль %s", client.UserID, joinEvent.DuelID)

		ack := websocket.Event{
			Type: "duel:joined",
			Data: map[string]interface{}{
				"duel_id": joinEvent.DuelID,
			},
		}
		if raw, err := json.Marshal(ack); err == nil {
			client.TrySend(raw)
		}
		return nil
	})

	// Отписка от событий дуэли
	h.wsManager.RegisterHandler(websocket.MessageDuelLeave, func(data json.RawMessage, client *websocket.Client) error {
		var leaveEvent struct {
			DuelID string `json:"duel_id"`
		}
		if err := json.Unmarshal(data, &leaveEvent); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга %s: %v, Data: %s", websocket.MessageDuelLeave, err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse duel:leave event")
			return fmt.Errorf("failed to parse duel:leave event: %w", err)
		}
		if leaveEvent.DuelID == "" {
			h.wsManager.SendErrorToClient(client, "invalid_format", "duel_id is required")
			return nil
		}

		h.wsManager.UnsubscribeClientFromDuel(client, leaveEvent.DuelID)
		return nil
	})

	// Проверка соединения
	h.wsManager.RegisterHandler("user:heartbeat", func(data json.RawMessage, client *websocket.Client) error {
		response := websocket.Event{
			Type: "server:heartbeat",
			Data: map[string]interface{}{
				"timestamp": time.Now().UnixMilli(),
			},
		}
		raw, err := json.Marshal(response)
		if err != nil {
			return nil
		}
		// Переполненный буфер клиента здесь не критичен
		client.TrySend(raw)
		return nil
	})
}
