// Package kanban зеркалит жизненный цикл заказов на внешнюю доску.
// Синхронизация асинхронная и не влияет на диалог с клиентом.
package kanban

import "context"

// Card - содержимое новой карточки.
type Card struct {
	Title       string
	Description string
	ColumnID    int64
	Tags        []string
}

// Board - внешняя доска. Реализации: integrations/kaiten и integrations/mock.
type Board interface {
	CreateCard(ctx context.Context, card Card) (int64, error)
	MoveCard(ctx context.Context, cardID int64, columnID int64) error
}
