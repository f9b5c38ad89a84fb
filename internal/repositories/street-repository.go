package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lightthouse/stirki/internal/entities"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

type StreetRepositoryInterface interface {
	List(ctx context.Context) ([]entities.Street, error)
	FindByID(ctx context.Context, id int64) (*entities.Street, error)
}

type StreetRepository struct {
	storage *pgxpool.Pool
}

func NewStreetRepository(storage *pgxpool.Pool) StreetRepositoryInterface {
	return &StreetRepository{storage: storage}
}

func (r *StreetRepository) List(ctx context.Context) ([]entities.Street, error) {
	rows, err := r.storage.Query(ctx, `SELECT id, name FROM streets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения улиц: %w", err)
	}
	defer rows.Close()

	streets := make([]entities.Street, 0)
	for rows.Next() {
		var s entities.Street
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования улицы: %w", err)
		}
		streets = append(streets, s)
	}
	return streets, rows.Err()
}

func (r *StreetRepository) FindByID(ctx context.Context, id int64) (*entities.Street, error) {
	var s entities.Street
	err := r.storage.QueryRow(ctx, `SELECT id, name FROM streets WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска улицы: %w", err)
	}
	return &s, nil
}
