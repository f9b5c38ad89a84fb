package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lightthouse/stirki/internal/entities"
)

type OrderHistoryRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.OrderStatusHistory) error
	FindByOrderID(ctx context.Context, orderID int64) ([]entities.OrderStatusHistory, error)
}

type OrderHistoryRepository struct {
	storage *pgxpool.Pool
}

func NewOrderHistoryRepository(storage *pgxpool.Pool) OrderHistoryRepositoryInterface {
	return &OrderHistoryRepository{storage: storage}
}

func (r *OrderHistoryRepository) CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.OrderStatusHistory) error {
	query := `
		INSERT INTO order_status_history (order_id, status_id, changed_by)
		VALUES ($1, (SELECT id FROM order_statuses WHERE name = $2), $3)
		RETURNING id, changed_at`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		history.OrderID, string(history.Status), string(history.ChangedBy),
	).Scan(&history.ID, &history.ChangedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи истории статусов: %w", err)
	}
	return nil
}

func (r *OrderHistoryRepository) FindByOrderID(ctx context.Context, orderID int64) ([]entities.OrderStatusHistory, error) {
	query := `
		SELECT h.id, h.order_id, st.name, h.changed_at, COALESCE(h.changed_by, '')
		FROM order_status_history h
		JOIN order_statuses st ON st.id = h.status_id
		WHERE h.order_id = $1
		ORDER BY h.changed_at ASC, h.id ASC`

	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории заказа: %w", err)
	}
	defer rows.Close()

	history := make([]entities.OrderStatusHistory, 0)
	for rows.Next() {
		var h entities.OrderStatusHistory
		var status, actor string
		if err := rows.Scan(&h.ID, &h.OrderID, &status, &h.ChangedAt, &actor); err != nil {
			return nil, fmt.Errorf("ошибка сканирования истории: %w", err)
		}
		h.Status = entities.OrderStatusName(status)
		h.ChangedBy = entities.Actor(actor)
		history = append(history, h)
	}
	return history, rows.Err()
}
