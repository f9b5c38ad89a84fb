package kanban

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/entities"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

type MockBoard struct {
	mock.Mock
}

func (m *MockBoard) CreateCard(ctx context.Context, card Card) (int64, error) {
	args := m.Called(ctx, card)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBoard) MoveCard(ctx context.Context, cardID int64, columnID int64) error {
	args := m.Called(ctx, cardID, columnID)
	return args.Error(0)
}

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) FindByID(ctx context.Context, id int64) (*entities.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Order), args.Error(1)
}

func (m *MockOrderStore) AttachExternalCard(ctx context.Context, id int64, cardID int64) error {
	args := m.Called(ctx, id, cardID)
	return args.Error(0)
}

func testColumns() ColumnMap {
	columns := ColumnMap{}
	for i, status := range entities.AllOrderStatuses {
		columns[status] = int64(100 + i)
	}
	return columns
}

func testOrder() (entities.Order, entities.Client) {
	order := entities.Order{
		ID:            7,
		Status:        entities.StatusWaitingForCapture,
		StreetName:    null.StringFrom("Ленина"),
		House:         "5",
		Apartment:     null.StringFrom("12"),
		Services:      entities.ServiceFlags{Ironing: true, UV: true},
		TotalPrice:    2280,
		PaymentStatus: entities.PaymentWaitingForCapture,
	}
	client := entities.Client{
		TelegramID: 555,
		Name:       null.StringFrom("Анна"),
		Phone:      "+79991234567",
	}
	return order, client
}

func newTestSyncer(t *testing.T, board Board, store OrderStore, queue int) *Syncer {
	t.Helper()
	s, err := NewSyncer(board, store, testColumns(), Options{QueueSize: queue, Workers: 1, JobTimeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestColumnMap_Validate(t *testing.T) {
	assert.NoError(t, testColumns().Validate())

	partial := testColumns()
	delete(partial, entities.StatusDrying)
	err := partial.Validate()
	assert.ErrorIs(t, err, apperrors.ErrColumnNotMapped)

	_, err = NewSyncer(new(MockBoard), new(MockOrderStore), partial, Options{}, zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrColumnNotMapped)
}

func TestBuildCard(t *testing.T) {
	order, client := testOrder()

	card := BuildCard(order, client)

	assert.Equal(t, "Заказ #7", card.Title)
	assert.Equal(t, []string{"Глажка", "Ультрафиолет"}, card.Tags)
	assert.Contains(t, card.Description, "- Адрес: Ленина, дом 5, квартира 12, подъезд —, этаж —\n")
	assert.Contains(t, card.Description, "- Телефон: +79991234567\n")
	assert.Contains(t, card.Description, "- Телеграм id: 555\n")
	assert.Contains(t, card.Description, "- Стоимость: 2280 руб\n")
	assert.Contains(t, card.Description, "**Дополнительно**\n1. Глажка\n2. Ультрафиолет\n")
}

func TestSyncer_CreateCardAttachesID(t *testing.T) {
	board := new(MockBoard)
	store := new(MockOrderStore)
	order, client := testOrder()
	waitingColumn := testColumns()[entities.StatusWaitingForCapture]

	board.On("CreateCard", mock.Anything, mock.MatchedBy(func(c Card) bool {
		return c.Title == "Заказ #7" && c.ColumnID == waitingColumn
	})).Return(int64(900), nil).Once()
	store.On("AttachExternalCard", mock.Anything, int64(7), int64(900)).Return(nil).Once()
	store.On("FindByID", mock.Anything, int64(7)).Return(&order, nil).Once()

	s := newTestSyncer(t, board, store, 4)
	s.Start()
	require.NoError(t, s.EnqueueCreateCard(order, client))
	s.Stop()

	board.AssertExpectations(t)
	store.AssertExpectations(t)
	board.AssertNotCalled(t, "MoveCard", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncer_CreateCardCatchesUpWithStatusChange(t *testing.T) {
	board := new(MockBoard)
	store := new(MockOrderStore)
	order, client := testOrder()
	paid := order
	paid.Status = entities.StatusNew

	board.On("CreateCard", mock.Anything, mock.Anything).Return(int64(900), nil).Once()
	store.On("AttachExternalCard", mock.Anything, int64(7), int64(900)).Return(nil).Once()
	store.On("FindByID", mock.Anything, int64(7)).Return(&paid, nil).Once()
	board.On("MoveCard", mock.Anything, int64(900), testColumns()[entities.StatusNew]).Return(nil).Once()

	s := newTestSyncer(t, board, store, 4)
	s.Start()
	require.NoError(t, s.EnqueueCreateCard(order, client))
	s.Stop()

	board.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSyncer_BoardFailureIsNotRetried(t *testing.T) {
	board := new(MockBoard)
	store := new(MockOrderStore)
	order, client := testOrder()

	board.On("CreateCard", mock.Anything, mock.Anything).Return(int64(0), errors.New("board is down"))

	s := newTestSyncer(t, board, store, 4)
	s.Start()
	require.NoError(t, s.EnqueueCreateCard(order, client))
	s.Stop()

	board.AssertNumberOfCalls(t, "CreateCard", 1)
	store.AssertNotCalled(t, "AttachExternalCard", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncer_SyncStatus(t *testing.T) {
	board := new(MockBoard)
	store := new(MockOrderStore)
	order, _ := testOrder()
	order.Status = entities.StatusWashing

	s := newTestSyncer(t, board, store, 4)
	s.Start()

	// без карточки переносить нечего
	require.NoError(t, s.SyncStatus(order))

	order.ExternalCardID = null.Int64From(900)
	board.On("MoveCard", mock.Anything, int64(900), testColumns()[entities.StatusWashing]).Return(nil).Once()
	require.NoError(t, s.SyncStatus(order))
	s.Stop()

	board.AssertExpectations(t)
	board.AssertNumberOfCalls(t, "MoveCard", 1)
}

func TestSyncer_MovesOfOneOrderKeepOrder(t *testing.T) {
	board := new(MockBoard)
	washing := testColumns()[entities.StatusWashing]
	drying := testColumns()[entities.StatusDrying]

	var mu sync.Mutex
	var moved []int64
	record := func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		moved = append(moved, args.Get(2).(int64))
	}
	board.On("MoveCard", mock.Anything, int64(900), washing).Run(func(args mock.Arguments) {
		time.Sleep(100 * time.Millisecond)
		record(args)
	}).Return(nil).Once()
	board.On("MoveCard", mock.Anything, int64(900), drying).Run(record).Return(nil).Once()

	s, err := NewSyncer(board, new(MockOrderStore), testColumns(), Options{QueueSize: 8, Workers: 2, JobTimeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	s.Start()

	order, _ := testOrder()
	order.ExternalCardID = null.Int64From(900)
	order.Status = entities.StatusWashing
	require.NoError(t, s.SyncStatus(order))
	order.Status = entities.StatusDrying
	require.NoError(t, s.SyncStatus(order))
	s.Stop()

	board.AssertExpectations(t)
	assert.Equal(t, []int64{washing, drying}, moved)
}

func TestSyncer_QueueFullAndClosed(t *testing.T) {
	order, client := testOrder()
	s := newTestSyncer(t, new(MockBoard), new(MockOrderStore), 1)

	require.NoError(t, s.EnqueueCreateCard(order, client))
	assert.ErrorIs(t, s.EnqueueCreateCard(order, client), apperrors.ErrQueueFull)

	// воркеры не запущены: оставшееся задание просто отбрасывается вместе с очередью
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	assert.ErrorIs(t, s.EnqueueCreateCard(order, client), apperrors.ErrQueueClosed)
}

func TestSyncer_RunStopsOnCancel(t *testing.T) {
	s := newTestSyncer(t, new(MockBoard), new(MockOrderStore), 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
	order, client := testOrder()
	assert.ErrorIs(t, s.EnqueueCreateCard(order, client), apperrors.ErrQueueClosed)
}
