package kanban

import (
	"fmt"

	"github.com/Lightthouse/stirki/internal/entities"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

// ColumnMap - статическая таблица статус -> колонка доски.
type ColumnMap map[entities.OrderStatusName]int64

// ColumnsFromConfig переводит таблицу из конфига в ColumnMap.
func ColumnsFromConfig(raw map[string]int64) ColumnMap {
	columns := make(ColumnMap, len(raw))
	for name, id := range raw {
		columns[entities.OrderStatusName(name)] = id
	}
	return columns
}

// Validate требует колонку для каждого статуса заказа.
func (m ColumnMap) Validate() error {
	for _, status := range entities.AllOrderStatuses {
		if _, ok := m[status]; !ok {
			return fmt.Errorf("статус %q: %w", status, apperrors.ErrColumnNotMapped)
		}
	}
	return nil
}

func (m ColumnMap) Column(status entities.OrderStatusName) (int64, error) {
	id, ok := m[status]
	if !ok {
		return 0, fmt.Errorf("статус %q: %w", status, apperrors.ErrColumnNotMapped)
	}
	return id, nil
}
