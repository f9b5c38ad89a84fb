package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/events"
	"github.com/Lightthouse/stirki/pkg/eventbus"
	"github.com/Lightthouse/stirki/pkg/telegram"
)

// NotificationListener сообщает клиенту в Telegram о смене статуса менеджером.
// Сообщение уходит в чат, где оформлялся заказ, ответом на подтверждение.
type NotificationListener struct {
	tgService telegram.ServiceInterface
	logger    *zap.Logger
}

func NewNotificationListener(tgService telegram.ServiceInterface, logger *zap.Logger) *NotificationListener {
	return &NotificationListener{tgService: tgService, logger: logger.Named("notifications")}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.OrderStatusChangedEventName, l.handleStatusChanged)
	l.logger.Info("NotificationListener подписан на событие " + events.OrderStatusChangedEventName)
}

func (l *NotificationListener) handleStatusChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события %T", event)
	}
	// Клиент сам видит результат своих действий в чате.
	if e.Actor != entities.ActorManager {
		return nil
	}
	order := e.Order
	if !order.ChatID.Valid {
		l.logger.Debug("у заказа нет чата, уведомление пропущено", zap.Int64("order_id", order.ID))
		return nil
	}

	var opts []telegram.MessageOption
	if order.MessageID.Valid {
		opts = append(opts, telegram.WithReplyTo(int(order.MessageID.Int64)))
	}

	if _, err := l.tgService.SendMessage(ctx, order.ChatID.Int64, statusText(order), opts...); err != nil {
		return fmt.Errorf("не удалось уведомить клиента о заказе %d: %w", order.ID, err)
	}
	l.logger.Info("клиент уведомлён о смене статуса",
		zap.Int64("order_id", order.ID),
		zap.String("status", string(order.Status)))
	return nil
}

func statusText(order entities.Order) string {
	switch order.Status {
	case entities.StatusCanceled:
		return fmt.Sprintf("Заказ #%d отменён.", order.ID)
	case entities.StatusDelivered:
		return fmt.Sprintf("Заказ #%d доставлен. Спасибо, что выбрали нас!", order.ID)
	default:
		return fmt.Sprintf("Заказ #%d: %s.", order.ID, order.Status.Title())
	}
}
