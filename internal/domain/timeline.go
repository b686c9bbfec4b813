package domain

import "time"

// Типы событий аудита жизненного цикла заказа.
const (
	TimelineEventOrderCreated       = "OrderCreated"
	TimelineEventOrderStatusChanged = "OrderStatusChanged"
	TimelineEventOrderCancelled     = "OrderCancelled"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
