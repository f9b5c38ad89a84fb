package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lightthouse/stirki/internal/entities"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

// OrderFilter - фильтр списка заказов для API менеджеров.
type OrderFilter struct {
	Status *entities.OrderStatusName
	From   *time.Time
	To     *time.Time
	Limit  uint64
	Offset uint64
}

type OrderRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, order *entities.Order) error
	FindByID(ctx context.Context, id int64) (*entities.Order, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*entities.Order, error)
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id int64, status entities.OrderStatusName, payment entities.PaymentStatus) error
	AttachExternalCard(ctx context.Context, id int64, cardID int64) error
	AttachMessage(ctx context.Context, id int64, chatID int64, messageID int64) error
	List(ctx context.Context, filter OrderFilter) ([]entities.Order, uint64, error)
}

type OrderRepository struct {
	storage *pgxpool.Pool
}

func NewOrderRepository(storage *pgxpool.Pool) OrderRepositoryInterface {
	return &OrderRepository{storage: storage}
}

var orderColumns = []string{
	"o.id", "o.client_id", "st.name", "o.street_id", "s.name",
	"o.house", "o.apartment", "o.entrance", "o.floor", "o.comment", "o.weight_kg",
	"o.need_ironing", "o.need_conditioner", "o.need_vacuum_pack", "o.need_uv", "o.need_wash_bag", "o.need_exact_time",
	"o.total_price", "o.payment_status", "o.external_card_id", "o.chat_id", "o.message_id",
	"o.created_at", "o.updated_at",
}

func selectOrders() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(orderColumns...).
		From("orders o").
		Join("order_statuses st ON st.id = o.status_id").
		LeftJoin("streets s ON s.id = o.street_id")
}

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var o entities.Order
	var status, payment string
	err := row.Scan(
		&o.ID, &o.ClientID, &status, &o.StreetID, &o.StreetName,
		&o.House, &o.Apartment, &o.Entrance, &o.Floor, &o.Comment, &o.WeightKg,
		&o.Services.Ironing, &o.Services.Conditioner, &o.Services.VacuumPack,
		&o.Services.UV, &o.Services.WashBag, &o.Services.ExactTime,
		&o.TotalPrice, &payment, &o.ExternalCardID, &o.ChatID, &o.MessageID,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования заказа: %w", err)
	}
	o.Status = entities.OrderStatusName(status)
	o.PaymentStatus = entities.PaymentStatus(payment)
	return &o, nil
}

// CreateInTx вставляет заказ и заполняет ID, CreatedAt и UpdatedAt.
func (r *OrderRepository) CreateInTx(ctx context.Context, tx pgx.Tx, order *entities.Order) error {
	query := `
		INSERT INTO orders (
			client_id, status_id, street_id, house, apartment, entrance, floor, comment, weight_kg,
			need_ironing, need_conditioner, need_vacuum_pack, need_uv, need_wash_bag, need_exact_time,
			total_price, payment_status, chat_id, message_id
		)
		VALUES (
			$1, (SELECT id FROM order_statuses WHERE name = $2), $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19
		)
		RETURNING id, created_at, updated_at`

	err := pick(r.storage, tx).QueryRow(ctx, query,
		order.ClientID, string(order.Status), order.StreetID, order.House,
		order.Apartment, order.Entrance, order.Floor, order.Comment, order.WeightKg,
		order.Services.Ironing, order.Services.Conditioner, order.Services.VacuumPack,
		order.Services.UV, order.Services.WashBag, order.Services.ExactTime,
		order.TotalPrice, string(order.PaymentStatus), order.ChatID, order.MessageID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*entities.Order, error) {
	query, args, err := selectOrders().Where(sq.Eq{"o.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanOrder(r.storage.QueryRow(ctx, query, args...))
}

// FindByIDForUpdate блокирует строку заказа до конца транзакции.
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*entities.Order, error) {
	query, args, err := selectOrders().Where(sq.Eq{"o.id": id}).Suffix("FOR UPDATE OF o").ToSql()
	if err != nil {
		return nil, err
	}
	return scanOrder(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *OrderRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id int64, status entities.OrderStatusName, payment entities.PaymentStatus) error {
	query := `
		UPDATE orders
		SET status_id = (SELECT id FROM order_statuses WHERE name = $2),
			payment_status = $3,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := pick(r.storage, tx).Exec(ctx, query, id, string(status), string(payment))
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заказа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AttachExternalCard трогает только external_card_id, поиск строго по id.
func (r *OrderRepository) AttachExternalCard(ctx context.Context, id int64, cardID int64) error {
	tag, err := r.storage.Exec(ctx, `UPDATE orders SET external_card_id = $2 WHERE id = $1`, id, cardID)
	if err != nil {
		return fmt.Errorf("ошибка привязки карточки к заказу: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) AttachMessage(ctx context.Context, id int64, chatID int64, messageID int64) error {
	tag, err := r.storage.Exec(ctx, `UPDATE orders SET chat_id = $2, message_id = $3 WHERE id = $1`, id, chatID, messageID)
	if err != nil {
		return fmt.Errorf("ошибка привязки сообщения к заказу: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]entities.Order, uint64, error) {
	where := sq.And{}
	if filter.Status != nil {
		where = append(where, sq.Eq{"st.name": string(*filter.Status)})
	}
	if filter.From != nil {
		where = append(where, sq.GtOrEq{"o.created_at": *filter.From})
	}
	if filter.To != nil {
		where = append(where, sq.Lt{"o.created_at": *filter.To})
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("orders o").
		Join("order_statuses st ON st.id = o.status_id").
		Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта заказов: %w", err)
	}

	builder := selectOrders().Where(where).OrderBy("o.created_at DESC", "o.id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заказов: %w", err)
	}
	defer rows.Close()

	orders := make([]entities.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}
