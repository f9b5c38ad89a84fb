package listeners

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/events"
	"github.com/Lightthouse/stirki/pkg/config"
	"github.com/Lightthouse/stirki/pkg/eventbus"
)

// MessageWriter - часть kafka.Writer, которой пользуется слушатель.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// orderMessage - JSON, который уходит в топик. Ключ сообщения - id заказа,
// поэтому события одного заказа попадают в одну партицию.
type orderMessage struct {
	Event          string                   `json:"event"`
	OrderID        int64                    `json:"order_id"`
	ClientID       int64                    `json:"client_id"`
	Status         entities.OrderStatusName `json:"status"`
	FromStatus     entities.OrderStatusName `json:"from_status,omitempty"`
	PaymentStatus  entities.PaymentStatus   `json:"payment_status"`
	Actor          entities.Actor           `json:"actor,omitempty"`
	TotalPrice     int                      `json:"total_price"`
	Services       entities.ServiceFlags    `json:"services"`
	ExternalCardID *int64                   `json:"external_card_id,omitempty"`
	OccurredAt     time.Time                `json:"occurred_at"`
}

type KafkaListener struct {
	writer MessageWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewKafkaListener(writer MessageWriter, logger *zap.Logger) *KafkaListener {
	return &KafkaListener{writer: writer, logger: logger.Named("kafka"), now: time.Now}
}

func (l *KafkaListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.OrderCreatedEventName, l.handle)
	bus.Subscribe(events.OrderStatusChangedEventName, l.handle)
	l.logger.Info("KafkaListener подписан на события заказов")
}

func (l *KafkaListener) handle(ctx context.Context, event eventbus.Event) error {
	var msg orderMessage
	switch e := event.(type) {
	case events.OrderCreatedEvent:
		msg = l.fromOrder(e.Name(), e.Order)
		msg.Actor = entities.ActorClient
	case events.OrderStatusChangedEvent:
		msg = l.fromOrder(e.Name(), e.Order)
		msg.FromStatus = e.FromStatus
		msg.Actor = e.Actor
	default:
		return fmt.Errorf("неожиданный тип события %T", event)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать событие %s: %w", msg.Event, err)
	}

	err = l.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.OrderID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(msg.Event)},
		},
	})
	if err != nil {
		return fmt.Errorf("не удалось отправить событие %s заказа %d в kafka: %w", msg.Event, msg.OrderID, err)
	}
	l.logger.Debug("событие отправлено", zap.String("event", msg.Event), zap.Int64("order_id", msg.OrderID))
	return nil
}

func (l *KafkaListener) fromOrder(name string, order entities.Order) orderMessage {
	msg := orderMessage{
		Event:         name,
		OrderID:       order.ID,
		ClientID:      order.ClientID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalPrice:    order.TotalPrice,
		Services:      order.Services,
		OccurredAt:    l.now().UTC(),
	}
	if order.ExternalCardID.Valid {
		id := order.ExternalCardID.Int64
		msg.ExternalCardID = &id
	}
	return msg
}
