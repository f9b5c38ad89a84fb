package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/events"
	"github.com/Lightthouse/stirki/internal/pricing"
	"github.com/Lightthouse/stirki/internal/repositories"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
	"github.com/Lightthouse/stirki/pkg/eventbus"
)

// KanbanSyncer - фоновая синхронизация с доской. Методы не блокируются.
type KanbanSyncer interface {
	EnqueueCreateCard(order entities.Order, client entities.Client) error
	SyncStatus(order entities.Order) error
}

type EventPublisher interface {
	Publish(event eventbus.Event)
}

// Correlation связывает заказ с сообщением бота, из которого он создан.
type Correlation struct {
	ChatID    int64
	MessageID int64
}

// StatusChange - запрос на смену статуса. Payment == nil оставляет оплату как есть.
type StatusChange struct {
	OrderID int64
	Status  entities.OrderStatusName
	Payment *entities.PaymentStatus
	Actor   entities.Actor
}

// OrderDetails - заказ вместе с журналом статусов.
type OrderDetails struct {
	Order   entities.Order                `json:"order"`
	History []entities.OrderStatusHistory `json:"history"`
}

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, client entities.Client, selection pricing.Selection, corr Correlation) (*entities.Order, error)
	UpdateStatus(ctx context.Context, change StatusChange) (*entities.Order, error)
	AttachExternalCard(ctx context.Context, orderID int64, cardID int64) error
	AttachMessage(ctx context.Context, orderID int64, chatID int64, messageID int64) error
	FindOrder(ctx context.Context, id int64) (*OrderDetails, error)
	ListOrders(ctx context.Context, filter repositories.OrderFilter) ([]entities.Order, uint64, error)
}

type OrderService struct {
	txManager   repositories.TxManagerInterface
	orderRepo   repositories.OrderRepositoryInterface
	historyRepo repositories.OrderHistoryRepositoryInterface
	clientRepo  repositories.ClientRepositoryInterface
	syncer      KanbanSyncer
	publisher   EventPublisher
	logger      *zap.Logger
}

func NewOrderService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	historyRepo repositories.OrderHistoryRepositoryInterface,
	clientRepo repositories.ClientRepositoryInterface,
	syncer KanbanSyncer,
	publisher EventPublisher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		txManager:   txManager,
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
		clientRepo:  clientRepo,
		syncer:      syncer,
		publisher:   publisher,
		logger:      logger.Named("order_service"),
	}
}

// CreateOrder фиксирует цену и снимок адреса клиента. Заказ, запись в журнале
// и счётчик заказов клиента пишутся одной транзакцией; доска и события
// получают заказ только после коммита.
func (s *OrderService) CreateOrder(ctx context.Context, client entities.Client, selection pricing.Selection, corr Correlation) (*entities.Order, error) {
	if !client.HasAddress() {
		return nil, apperrors.ErrAddressIncomplete
	}

	quote, err := pricing.QuoteFor(selection)
	if err != nil {
		s.logger.Error("не удалось рассчитать стоимость заказа", zap.Int64("client_id", client.ID), zap.Error(err))
		return nil, err
	}

	order := &entities.Order{
		ClientID:      client.ID,
		Status:        entities.StatusWaitingForCapture,
		StreetID:      client.StreetID,
		StreetName:    client.StreetName,
		House:         client.House,
		Apartment:     client.Apartment,
		Entrance:      client.Entrance,
		Floor:         client.Floor,
		Comment:       client.Comment,
		WeightKg:      3,
		Services:      entities.FlagsFromSelection(selection),
		TotalPrice:    quote.Total,
		PaymentStatus: entities.PaymentWaitingForCapture,
	}
	if corr.ChatID != 0 {
		order.ChatID = null.Int64From(corr.ChatID)
	}
	if corr.MessageID != 0 {
		order.MessageID = null.Int64From(corr.MessageID)
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.orderRepo.CreateInTx(ctx, tx, order); err != nil {
			return err
		}
		history := &entities.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			ChangedBy: entities.ActorClient,
		}
		if err := s.historyRepo.CreateInTx(ctx, tx, history); err != nil {
			return err
		}
		return s.clientRepo.IncrementOrdersInTx(ctx, tx, client.ID)
	})
	if err != nil {
		s.logger.Error("ошибка создания заказа", zap.Int64("client_id", client.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("заказ создан",
		zap.Int64("order_id", order.ID),
		zap.Int64("client_id", client.ID),
		zap.Int("total_price", order.TotalPrice))

	if err := s.syncer.EnqueueCreateCard(*order, client); err != nil {
		s.logger.Warn("карточка заказа не поставлена в очередь", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	s.publisher.Publish(events.OrderCreatedEvent{Order: *order, Client: client})

	return order, nil
}

// UpdateStatus меняет статус под блокировкой строки. Повтор того же статуса
// ничего не пишет; смена только оплаты не попадает в журнал.
func (s *OrderService) UpdateStatus(ctx context.Context, change StatusChange) (*entities.Order, error) {
	if _, err := entities.ParseOrderStatus(string(change.Status)); err != nil {
		return nil, err
	}

	var (
		updated    *entities.Order
		fromStatus entities.OrderStatusName
		statusMove bool
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.orderRepo.FindByIDForUpdate(ctx, tx, change.OrderID)
		if err != nil {
			return err
		}
		fromStatus = current.Status

		payment := current.PaymentStatus
		if change.Payment != nil {
			payment = *change.Payment
		}

		if change.Status == entities.StatusWaitingForCapture &&
			current.PaymentStatus == entities.PaymentSucceeded &&
			current.Status != entities.StatusWaitingForCapture {
			return fmt.Errorf("%s -> %s: %w", current.Status, change.Status, apperrors.ErrInvalidTransition)
		}

		if current.Status == change.Status && current.PaymentStatus == payment {
			updated = current
			return nil
		}

		if err := s.orderRepo.UpdateStatusInTx(ctx, tx, current.ID, change.Status, payment); err != nil {
			return err
		}

		if current.Status != change.Status {
			statusMove = true
			history := &entities.OrderStatusHistory{
				OrderID:   current.ID,
				Status:    change.Status,
				ChangedBy: change.Actor,
			}
			if err := s.historyRepo.CreateInTx(ctx, tx, history); err != nil {
				return err
			}
		}

		current.Status = change.Status
		current.PaymentStatus = payment
		updated = current
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrInvalidTransition) {
			s.logger.Error("ошибка смены статуса заказа", zap.Int64("order_id", change.OrderID), zap.Error(err))
		}
		return nil, err
	}

	if !statusMove {
		return updated, nil
	}

	s.logger.Info("статус заказа изменён",
		zap.Int64("order_id", updated.ID),
		zap.String("from", string(fromStatus)),
		zap.String("to", string(updated.Status)),
		zap.String("actor", string(change.Actor)))

	if err := s.syncer.SyncStatus(*updated); err != nil {
		s.logger.Warn("перенос карточки не поставлен в очередь", zap.Int64("order_id", updated.ID), zap.Error(err))
	}
	s.publisher.Publish(events.OrderStatusChangedEvent{Order: *updated, FromStatus: fromStatus, Actor: change.Actor})

	return updated, nil
}

func (s *OrderService) AttachExternalCard(ctx context.Context, orderID int64, cardID int64) error {
	return s.orderRepo.AttachExternalCard(ctx, orderID, cardID)
}

func (s *OrderService) AttachMessage(ctx context.Context, orderID int64, chatID int64, messageID int64) error {
	return s.orderRepo.AttachMessage(ctx, orderID, chatID, messageID)
}

func (s *OrderService) FindOrder(ctx context.Context, id int64) (*OrderDetails, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.historyRepo.FindByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderDetails{Order: *order, History: history}, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter repositories.OrderFilter) ([]entities.Order, uint64, error) {
	return s.orderRepo.List(ctx, filter)
}
