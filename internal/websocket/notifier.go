package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// relayChannel — общий Redis-канал межсерверной пересылки событий
const relayChannel = "duel:events"

// Notifier публикует события в каналы дуэлей и пользователей.
// Публикация выполняется строго после коммита транзакции, к которой
// относится событие, — на это полагаются клиенты.
type Notifier interface {
	Publish(topic string, eventType string, payload interface{})
}

// relayEnvelope — конверт события для пересылки между экземплярами
type relayEnvelope struct {
	InstanceID string          `json:"instance_id"`
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
}

// EventNotifier доставляет события локальным подписчикам через хаб и
// остальным экземплярам через PubSubProvider
type EventNotifier struct {
	hub        *Hub
	provider   PubSubProvider
	instanceID string
}

// NewEventNotifier создает нотификатор поверх хаба и провайдера Pub/Sub
func NewEventNotifier(hub *Hub, provider PubSubProvider) *EventNotifier {
	return &EventNotifier{
		hub:        hub,
		provider:   provider,
		instanceID: uuid.New().String(),
	}
}

// Publish сериализует событие и доставляет его подписчикам канала.
// Ошибки доставки логируются и не возвращаются: доменная операция
// уже закоммичена, откатывать нечего.
func (n *EventNotifier) Publish(topic string, eventType string, payload interface{}) {
	event := Event{Type: eventType, Data: payload}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Notifier] Ошибка сериализации события %s для канала %s: %v", eventType, topic, err)
		return
	}

	n.hub.Publish(topic, data)

	envelope := relayEnvelope{
		InstanceID: n.instanceID,
		Topic:      topic,
		Payload:    data,
		Timestamp:  time.Now(),
	}
	envData, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("[Notifier] Ошибка сериализации конверта для канала %s: %v", topic, err)
		return
	}
	if err := n.provider.Publish(relayChannel, envData); err != nil {
		log.Printf("[Notifier] Ошибка публикации в Redis (канал %s): %v", topic, err)
	}
}

// RunRelay принимает события других экземпляров и доставляет их локальным
// подписчикам. Блокируется до отмены контекста.
func (n *EventNotifier) RunRelay(ctx context.Context) error {
	msgCh, err := n.provider.Subscribe(ctx, relayChannel)
	if err != nil {
		return fmt.Errorf("notifier relay subscribe failed: %w", err)
	}
	log.Println("[Notifier] Межсерверная пересылка событий запущена")

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				log.Println("[Notifier] Канал пересылки закрыт")
				return nil
			}
			var envelope relayEnvelope
			if err := json.Unmarshal(msg, &envelope); err != nil {
				log.Printf("[Notifier] Некорректный конверт события: %v", err)
				continue
			}
			// Свои события уже доставлены локально
			if envelope.InstanceID == n.instanceID {
				continue
			}
			n.hub.Publish(envelope.Topic, envelope.Payload)
		case <-ctx.Done():
			return nil
		}
	}
}
