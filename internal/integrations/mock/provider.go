package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/Lightthouse/stirki/internal/kanban"
)

// Board - доска в памяти, используется, когда Kaiten не настроен.
type Board struct {
	ShouldFail bool

	mu     sync.Mutex
	nextID int64
	cards  map[int64]kanban.Card
}

func NewBoard() *Board {
	return &Board{nextID: 1, cards: make(map[int64]kanban.Card)}
}

func (b *Board) Name() string {
	return "mock"
}

func (b *Board) CreateCard(ctx context.Context, card kanban.Card) (int64, error) {
	if b.ShouldFail {
		return 0, errors.New("mock board: создание карточки отключено")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.cards[id] = card
	return id, nil
}

func (b *Board) MoveCard(ctx context.Context, cardID int64, columnID int64) error {
	if b.ShouldFail {
		return errors.New("mock board: перенос карточки отключён")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	card, ok := b.cards[cardID]
	if !ok {
		return errors.New("mock board: карточка не найдена")
	}
	card.ColumnID = columnID
	b.cards[cardID] = card
	return nil
}

// Card возвращает текущее состояние карточки.
func (b *Board) Card(id int64) (kanban.Card, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	card, ok := b.cards[id]
	return card, ok
}
