package websocket

import (
	"context"
	"log"
	"sync/atomic"
)

// subscription связывает клиента с именем канала
type subscription struct {
	client *Client
	topic  string
}

// topicMessage — сообщение для рассылки всем подписчикам канала
type topicMessage struct {
	topic   string
	payload []byte
}

// Hub управляет подключенными клиентами и их подписками на каналы.
// Все состояние принадлежит горутине Run: внешние методы только кладут
// команды в каналы, поэтому блокировки не нужны.
type Hub struct {
	// Состояние, доступное только из Run
	clients      map[*Client]bool
	topics       map[string]map[*Client]bool
	clientTopics map[*Client]map[string]bool

	// Каналы команд
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	publish     chan topicMessage

	// Счетчик клиентов для метрик без обращения к горутине
	clientCount atomic.Int64
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[*Client]bool),
		topics:       make(map[string]map[*Client]bool),
		clientTopics: make(map[*Client]map[string]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		subscribe:    make(chan subscription, 64),
		unsubscribe:  make(chan subscription, 64),
		publish:      make(chan topicMessage, 256),
	}
}

// Run выполняет цикл обработки команд хаба до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	log.Println("[Hub] Цикл обработки запущен")
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case sub := <-h.subscribe:
			h.handleSubscribe(sub)
		case sub := <-h.unsubscribe:
			h.handleUnsubscribe(sub)
		case msg := <-h.publish:
			h.handlePublish(msg)
		case <-ctx.Done():
			log.Println("[Hub] Остановка: закрываю все соединения")
			for client := range h.clients {
				client.CloseSend()
			}
			return
		}
	}
}

// Register регистрирует клиента в хабе
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента из хаба
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe подписывает клиента на канал
func (h *Hub) Subscribe(client *Client, topic string) {
	h.subscribe <- subscription{client: client, topic: topic}
}

// Unsubscribe отписывает клиента от канала
func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.unsubscribe <- subscription{client: client, topic: topic}
}

// Publish рассылает сообщение всем подписчикам канала
func (h *Hub) Publish(topic string, payload []byte) {
	h.publish <- topicMessage{topic: topic, payload: payload}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

func (h *Hub) handleRegister(client *Client) {
	h.clients[client] = true
	h.clientCount.Add(1)

	// Клиент всегда подписан на свой личный канал
	h.handleSubscribe(subscription{client: client, topic: UserTopic(client.UserIDUint())})

	log.Printf("[Hub] Клиент %s (conn %s) зарегистрирован, всего клиентов: %d",
		client.UserID, client.ConnectionID, len(h.clients))
	client.registrationComplete()
}

func (h *Hub) handleUnregister(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	h.clientCount.Add(-1)

	for topic := range h.clientTopics[client] {
		h.removeFromTopic(client, topic)
	}
	delete(h.clientTopics, client)

	client.CloseSend()
	log.Printf("[Hub] Клиент %s (conn %s) удален, всего клиентов: %d",
		client.UserID, client.ConnectionID, len(h.clients))
}

func (h *Hub) handleSubscribe(sub subscription) {
	// Подписка могла прийти уже после отключения клиента
	if !h.clients[sub.client] {
		return
	}
	members, ok := h.topics[sub.topic]
	if !ok {
		members = make(map[*Client]bool)
		h.topics[sub.topic] = members
	}
	members[sub.client] = true

	owned, ok := h.clientTopics[sub.client]
	if !ok {
		owned = make(map[string]bool)
		h.clientTopics[sub.client] = owned
	}
	owned[sub.topic] = true
}

func (h *Hub) handleUnsubscribe(sub subscription) {
	h.removeFromTopic(sub.client, sub.topic)
	if owned, ok := h.clientTopics[sub.client]; ok {
		delete(owned, sub.topic)
	}
}

func (h *Hub) handlePublish(msg topicMessage) {
	members := h.topics[msg.topic]
	for client := range members {
		if !client.TrySend(msg.payload) {
			log.Printf("[Hub] Буфер клиента %s переполнен, сообщение канала %s отброшено",
				client.UserID, msg.topic)
		}
	}
}

func (h *Hub) removeFromTopic(client *Client, topic string) {
	if members, ok := h.topics[topic]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
}
