// Package kafka публикует события заказов в Kafka.
package kafka

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// DefaultTopic используется, если топик не задан в конфигурации.
const DefaultTopic = "ordermgmt.order.events"

// Заголовки сообщения.
const (
	HeaderEventID   = "x-event-id"
	HeaderEventType = "x-event-type"
)

// OrderMessage — JSON-представление события заказа в топике.
type OrderMessage struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	OrderID   string         `json:"order_id"`
	UserID    string         `json:"user_id"`
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewOrderMessage строит сообщение из доменного события и присваивает ему
// уникальный идентификатор для дедупликации на стороне потребителя.
func NewOrderMessage(event domain.OrderEvent) OrderMessage {
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return OrderMessage{
		EventID:   uuid.NewString(),
		EventType: string(event.Type),
		OrderID:   strconv.FormatInt(event.OrderID, 10),
		UserID:    strconv.FormatInt(event.UserID, 10),
		Status:    string(event.Status),
		Timestamp: occurred,
		Metadata:  event.Metadata,
	}
}
