package domain

import "time"

const (
	TimelineOrderCreated       = "OrderCreated"
	TimelineOrderStatusChanged = "OrderStatusChanged"
	TimelineOrderCanceled      = "OrderCanceled"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	ID       int64
	OrderID  int64
	Type     string
	Status   OrderStatus
	Reason   string
	Occurred time.Time
}
