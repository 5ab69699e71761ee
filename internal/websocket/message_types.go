package websocket

import "fmt"

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// События дуэли, отправляемые сервером
const (
	// EventDuelStarted сообщает о старте дуэли (оба игрока найдены, вопросы зафиксированы)
	EventDuelStarted = "duel:started"

	// EventDuelFinished сообщает о завершении дуэли с итоговыми счетами и дельтами рейтинга
	EventDuelFinished = "duel:finished"

	// EventDuelTimeout сообщает об истечении времени FRENZY-дуэли
	EventDuelTimeout = "duel:timeout"

	// EventDuelExpired сообщает о принудительном завершении брошенной дуэли
	EventDuelExpired = "duel:expired"
)

// Сообщения от клиента к серверу
const (
	// MessageDuelJoin — запрос подписки на канал дуэли
	MessageDuelJoin = "duel:join"

	// MessageDuelLeave — отписка от канала дуэли
	MessageDuelLeave = "duel:leave"
)

// DuelTopic возвращает имя канала дуэли
func DuelTopic(duelID string) string {
	return "duel:" + duelID
}

// UserTopic возвращает имя личного канала пользователя
func UserTopic(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
