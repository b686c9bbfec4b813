package kafka

// EventType определяет тип события заказа.
type EventType string

const (
	// События жизненного цикла заказа.
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderCancelled     EventType = "order.cancelled"
)

// Topics для Kafka.
const (
	TopicOrderEvents     = "bookstore.order.events"
	TopicDeadLetterQueue = "bookstore.dlq" // Dead Letter Queue для failed messages
)
