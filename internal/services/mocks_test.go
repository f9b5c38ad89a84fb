package services

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/repositories"
	"github.com/Lightthouse/stirki/pkg/eventbus"
)

// fakeTxManager вызывает fn без реальной транзакции.
type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.calls++
	return fn(nil)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateInTx(ctx context.Context, tx pgx.Tx, order *entities.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id int64) (*entities.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*entities.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id int64, status entities.OrderStatusName, payment entities.PaymentStatus) error {
	args := m.Called(ctx, tx, id, status, payment)
	return args.Error(0)
}

func (m *MockOrderRepository) AttachExternalCard(ctx context.Context, id int64, cardID int64) error {
	args := m.Called(ctx, id, cardID)
	return args.Error(0)
}

func (m *MockOrderRepository) AttachMessage(ctx context.Context, id int64, chatID int64, messageID int64) error {
	args := m.Called(ctx, id, chatID, messageID)
	return args.Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]entities.Order, uint64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]entities.Order), args.Get(1).(uint64), args.Error(2)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.OrderStatusHistory) error {
	args := m.Called(ctx, tx, history)
	return args.Error(0)
}

func (m *MockHistoryRepository) FindByOrderID(ctx context.Context, orderID int64) ([]entities.OrderStatusHistory, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]entities.OrderStatusHistory), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*entities.Client, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Client), args.Error(1)
}

func (m *MockClientRepository) FindByID(ctx context.Context, id int64) (*entities.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Client), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client entities.Client) (*entities.Client, error) {
	args := m.Called(ctx, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Client), args.Error(1)
}

func (m *MockClientRepository) IncrementOrdersInTx(ctx context.Context, tx pgx.Tx, clientID int64) error {
	args := m.Called(ctx, tx, clientID)
	return args.Error(0)
}

type MockStreetRepository struct {
	mock.Mock
}

func (m *MockStreetRepository) List(ctx context.Context) ([]entities.Street, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.Street), args.Error(1)
}

func (m *MockStreetRepository) FindByID(ctx context.Context, id int64) (*entities.Street, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Street), args.Error(1)
}

type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) EnqueueCreateCard(order entities.Order, client entities.Client) error {
	args := m.Called(order, client)
	return args.Error(0)
}

func (m *MockSyncer) SyncStatus(order entities.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(event eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}
