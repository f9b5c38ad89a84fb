package repositories

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/pkg/database/postgresql"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
	"github.com/Lightthouse/stirki/seeders"
)

// RepositorySuite гоняет репозитории против настоящего Postgres.
// Без TEST_DATABASE_URL весь набор пропускается.
type RepositorySuite struct {
	suite.Suite
	ctx      context.Context
	pool     *pgxpool.Pool
	tx       TxManagerInterface
	clients  ClientRepositoryInterface
	streets  StreetRepositoryInterface
	orders   OrderRepositoryInterface
	history  OrderHistoryRepositoryInterface
	streetID int64
}

func TestRepositorySuite(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	suite.Run(t, &RepositorySuite{})
}

func (s *RepositorySuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	s.ctx = context.Background()

	s.Require().NoError(postgresql.Migrate(dsn))
	pool, err := postgresql.ConnectDB(s.ctx, dsn)
	s.Require().NoError(err)
	s.pool = pool
	s.Require().NoError(seeders.SeedDictionaries(s.ctx, pool, zap.NewNop()))

	s.tx = NewTxManager(pool)
	s.clients = NewClientRepository(pool)
	s.streets = NewStreetRepository(pool)
	s.orders = NewOrderRepository(pool)
	s.history = NewOrderHistoryRepository(pool)

	streets, err := s.streets.List(s.ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(streets)
	s.streetID = streets[0].ID
}

func (s *RepositorySuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *RepositorySuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE order_status_history, orders, clients RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *RepositorySuite) saveClient(tgID int64) *entities.Client {
	client, err := s.clients.Save(s.ctx, entities.Client{
		TelegramID: tgID,
		Name:       null.StringFrom("Анна"),
		Phone:      "+79991234567",
		StreetID:   null.Int64From(s.streetID),
		House:      "5",
		Apartment:  null.StringFrom("12"),
	})
	s.Require().NoError(err)
	return client
}

func (s *RepositorySuite) createOrder(client *entities.Client) *entities.Order {
	order := &entities.Order{
		ClientID:      client.ID,
		Status:        entities.StatusWaitingForCapture,
		StreetID:      client.StreetID,
		House:         client.House,
		Apartment:     client.Apartment,
		WeightKg:      3,
		Services:      entities.ServiceFlags{Ironing: true, UV: true},
		TotalPrice:    2280,
		PaymentStatus: entities.PaymentWaitingForCapture,
		ChatID:        null.Int64From(client.TelegramID),
	}
	err := s.tx.RunInTransaction(s.ctx, func(tx pgx.Tx) error {
		if err := s.orders.CreateInTx(s.ctx, tx, order); err != nil {
			return err
		}
		if err := s.history.CreateInTx(s.ctx, tx, &entities.OrderStatusHistory{
			OrderID: order.ID, Status: order.Status, ChangedBy: entities.ActorSystem,
		}); err != nil {
			return err
		}
		return s.clients.IncrementOrdersInTx(s.ctx, tx, client.ID)
	})
	s.Require().NoError(err)
	return order
}

func (s *RepositorySuite) TestClientUpsertKeepsCounters() {
	client := s.saveClient(100)
	s.createOrder(client)

	client.Phone = "+79990000000"
	client.Name = null.StringFrom("Анна Петровна")
	updated, err := s.clients.Save(s.ctx, *client)
	s.Require().NoError(err)

	s.Equal(client.ID, updated.ID)
	s.Equal("+79990000000", updated.Phone)
	s.Equal(1, updated.TotalOrders)
	s.True(updated.StreetName.Valid)

	_, err = s.clients.FindByTelegramID(s.ctx, 999)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *RepositorySuite) TestCreateOrderSnapshotsAddress() {
	client := s.saveClient(101)
	order := s.createOrder(client)

	found, err := s.orders.FindByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(entities.StatusWaitingForCapture, found.Status)
	s.Equal(2280, found.TotalPrice)
	s.True(found.Services.Ironing)
	s.True(found.Services.UV)
	s.False(found.Services.Conditioner)
	s.Equal("12", found.Apartment.String)
	s.True(found.StreetName.Valid)
	s.False(found.ExternalCardID.Valid)

	// смена адреса клиента не трогает уже созданный заказ
	client.House = "77"
	_, err = s.clients.Save(s.ctx, *client)
	s.Require().NoError(err)
	found, err = s.orders.FindByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal("5", found.House)
}

func (s *RepositorySuite) TestFailedTransactionLeavesNothing() {
	client := s.saveClient(102)
	boom := errors.New("boom")

	err := s.tx.RunInTransaction(s.ctx, func(tx pgx.Tx) error {
		order := &entities.Order{
			ClientID: client.ID, Status: entities.StatusNew, House: "5",
			WeightKg: 3, TotalPrice: 990, PaymentStatus: entities.PaymentPending,
		}
		if err := s.orders.CreateInTx(s.ctx, tx, order); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, total, err := s.orders.List(s.ctx, OrderFilter{})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *RepositorySuite) TestStatusUpdateWithHistory() {
	order := s.createOrder(s.saveClient(103))

	err := s.tx.RunInTransaction(s.ctx, func(tx pgx.Tx) error {
		locked, err := s.orders.FindByIDForUpdate(s.ctx, tx, order.ID)
		if err != nil {
			return err
		}
		s.Equal(entities.StatusWaitingForCapture, locked.Status)
		if err := s.orders.UpdateStatusInTx(s.ctx, tx, order.ID, entities.StatusNew, entities.PaymentSucceeded); err != nil {
			return err
		}
		return s.history.CreateInTx(s.ctx, tx, &entities.OrderStatusHistory{
			OrderID: order.ID, Status: entities.StatusNew, ChangedBy: entities.ActorClient,
		})
	})
	s.Require().NoError(err)

	found, err := s.orders.FindByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(entities.StatusNew, found.Status)
	s.Equal(entities.PaymentSucceeded, found.PaymentStatus)

	history, err := s.history.FindByOrderID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(entities.StatusWaitingForCapture, history[0].Status)
	s.Equal(entities.StatusNew, history[1].Status)
	s.Equal(entities.ActorClient, history[1].ChangedBy)

	s.ErrorIs(s.orders.UpdateStatusInTx(s.ctx, nil, 999999, entities.StatusNew, entities.PaymentPending), apperrors.ErrNotFound)
}

func (s *RepositorySuite) TestAttachExternalCardAndMessage() {
	order := s.createOrder(s.saveClient(104))

	s.Require().NoError(s.orders.AttachExternalCard(s.ctx, order.ID, 555))
	s.Require().NoError(s.orders.AttachMessage(s.ctx, order.ID, 104, 31))

	found, err := s.orders.FindByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(int64(555), found.ExternalCardID.Int64)
	s.Equal(int64(31), found.MessageID.Int64)
	s.Equal(entities.StatusWaitingForCapture, found.Status)

	s.ErrorIs(s.orders.AttachExternalCard(s.ctx, 999999, 1), apperrors.ErrNotFound)
}

func (s *RepositorySuite) TestListFilters() {
	client := s.saveClient(105)
	first := s.createOrder(client)
	s.createOrder(client)
	s.Require().NoError(s.orders.UpdateStatusInTx(s.ctx, nil, first.ID, entities.StatusCanceled, entities.PaymentCanceled))

	canceled := entities.StatusCanceled
	orders, total, err := s.orders.List(s.ctx, OrderFilter{Status: &canceled, Limit: 10})
	s.Require().NoError(err)
	s.Equal(uint64(1), total)
	s.Require().Len(orders, 1)
	s.Equal(first.ID, orders[0].ID)

	future := time.Now().Add(time.Hour)
	_, total, err = s.orders.List(s.ctx, OrderFilter{From: &future})
	s.Require().NoError(err)
	s.Zero(total)

	orders, total, err = s.orders.List(s.ctx, OrderFilter{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Equal(uint64(2), total)
	s.Len(orders, 1)
}
