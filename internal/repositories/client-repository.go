package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lightthouse/stirki/internal/entities"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

type ClientRepositoryInterface interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*entities.Client, error)
	FindByID(ctx context.Context, id int64) (*entities.Client, error)
	Save(ctx context.Context, client entities.Client) (*entities.Client, error)
	IncrementOrdersInTx(ctx context.Context, tx pgx.Tx, clientID int64) error
}

type ClientRepository struct {
	storage *pgxpool.Pool
}

func NewClientRepository(storage *pgxpool.Pool) ClientRepositoryInterface {
	return &ClientRepository{storage: storage}
}

func scanClient(row pgx.Row) (*entities.Client, error) {
	var c entities.Client
	err := row.Scan(
		&c.ID, &c.TelegramID, &c.Name, &c.Phone,
		&c.StreetID, &c.StreetName,
		&c.House, &c.Apartment, &c.Entrance, &c.Floor, &c.Comment,
		&c.TotalOrders, &c.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования клиента: %w", err)
	}
	return &c, nil
}

func (r *ClientRepository) findOne(ctx context.Context, where sq.Eq) (*entities.Client, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(
		"c.id", "c.telegram_id", "c.name", "c.phone",
		"c.street_id", "s.name",
		"c.house", "c.apartment", "c.entrance", "c.floor", "c.comment",
		"c.total_orders", "c.registered_at",
	).From("clients c").LeftJoin("streets s ON s.id = c.street_id").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	return scanClient(r.storage.QueryRow(ctx, query, args...))
}

func (r *ClientRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*entities.Client, error) {
	return r.findOne(ctx, sq.Eq{"c.telegram_id": telegramID})
}

func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*entities.Client, error) {
	return r.findOne(ctx, sq.Eq{"c.id": id})
}

// Save создаёт клиента или обновляет его контакты и адрес.
// Счётчик заказов и дата регистрации не меняются.
func (r *ClientRepository) Save(ctx context.Context, client entities.Client) (*entities.Client, error) {
	query := `
		INSERT INTO clients (telegram_id, name, phone, street_id, house, apartment, entrance, floor, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (telegram_id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			street_id = EXCLUDED.street_id,
			house = EXCLUDED.house,
			apartment = EXCLUDED.apartment,
			entrance = EXCLUDED.entrance,
			floor = COALESCE(EXCLUDED.floor, clients.floor),
			comment = COALESCE(EXCLUDED.comment, clients.comment)
		RETURNING id`

	var id int64
	err := r.storage.QueryRow(ctx, query,
		client.TelegramID, client.Name, client.Phone, client.StreetID, client.House,
		client.Apartment, client.Entrance, client.Floor, client.Comment,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения клиента: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *ClientRepository) IncrementOrdersInTx(ctx context.Context, tx pgx.Tx, clientID int64) error {
	tag, err := pick(r.storage, tx).Exec(ctx, `UPDATE clients SET total_orders = total_orders + 1 WHERE id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("ошибка увеличения счётчика заказов: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
