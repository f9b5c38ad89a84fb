package events

import "github.com/Lightthouse/stirki/internal/entities"

const (
	OrderCreatedEventName       = "order.created"
	OrderStatusChangedEventName = "order.status_changed"
)

// OrderCreatedEvent публикуется после коммита транзакции создания заказа.
type OrderCreatedEvent struct {
	Order  entities.Order
	Client entities.Client
}

func (e OrderCreatedEvent) Name() string { return OrderCreatedEventName }

// OrderStatusChangedEvent публикуется после коммита смены статуса.
type OrderStatusChangedEvent struct {
	Order      entities.Order
	FromStatus entities.OrderStatusName
	Actor      entities.Actor
}

func (e OrderStatusChangedEvent) Name() string { return OrderStatusChangedEventName }
