package domain

import "time"

// EventType определяет тип внешнего события заказа.
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventOrderCanceled      EventType = "order.canceled"
)

// OrderEvent — уведомление для внешних подписчиков. Публикация best-effort:
// события не входят в контракт консистентности остатков.
type OrderEvent struct {
	Type       EventType
	OrderID    int64
	UserID     int64
	Status     OrderStatus
	OccurredAt time.Time
	Metadata   map[string]any
}
