package websocket

import (
	"encoding/json"
	"fmt"
	"log"
)

// Manager обрабатывает входящие WebSocket-сообщения
type Manager struct {
	hub            *Hub
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub *Hub) *Manager {
	return &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
	log.Printf("[WebSocketManager] Зарегистрирован обработчик для сообщений типа: %s", eventType)
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если обработка не удалась и соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("[WebSocketManager] Некорректный JSON от %s: %v", client.UserID, err)
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		log.Printf("[WebSocketManager] Нет обработчика для типа '%s' от клиента %s", event.Type, client.UserID)
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil // Неизвестный тип - не закрываем соединение
	}

	rawData, _ := json.Marshal(event.Data)
	if err := handler(rawData, client); err != nil {
		log.Printf("[WebSocketManager] Обработчик '%s' вернул ошибку для %s: %v", event.Type, client.UserID, err)
		return err
	}
	return nil
}

// SendErrorToClient отправляет стандартизированное сообщение об ошибке клиенту.
// Соединение при этом не закрывается.
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	errorEvent := Event{
		Type: "server:error",
		Data: map[string]string{
			"code":    code,
			"message": message,
		},
	}
	payload, err := json.Marshal(errorEvent)
	if err != nil {
		log.Printf("[WebSocketManager] Ошибка сериализации server:error: %v", err)
		return
	}
	if !client.TrySend(payload) {
		log.Printf("[WebSocketManager] Не удалось отправить server:error клиенту %s", client.UserID)
	}
}

// SubscribeClientToDuel подписывает клиента на канал дуэли
func (m *Manager) SubscribeClientToDuel(client *Client, duelID string) {
	m.hub.Subscribe(client, DuelTopic(duelID))
}

// UnsubscribeClientFromDuel отписывает клиента от канала дуэли
func (m *Manager) UnsubscribeClientFromDuel(client *Client, duelID string) {
	m.hub.Unsubscribe(client, DuelTopic(duelID))
}

// GetMetrics возвращает текущие метрики WebSocket-системы
func (m *Manager) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"client_count": m.hub.ClientCount(),
	}
}
