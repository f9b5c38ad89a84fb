// Package kaiten - клиент REST API доски Kaiten.
package kaiten

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/kanban"
)

type Provider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	boardID    int64
	logger     *zap.Logger
}

// New собирает клиент для https://{domain}.kaiten.ru/api/latest.
func New(domain, apiKey string, boardID int64, timeout time.Duration, logger *zap.Logger) *Provider {
	return NewWithBaseURL(fmt.Sprintf("https://%s.kaiten.ru/api/latest", domain), apiKey, boardID, timeout, logger)
}

func NewWithBaseURL(baseURL, apiKey string, boardID int64, timeout time.Duration, logger *zap.Logger) *Provider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Provider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		boardID:    boardID,
		logger:     logger.Named("kaiten_provider"),
	}
}

func (p *Provider) Name() string {
	return "kaiten"
}

func (p *Provider) CreateCard(ctx context.Context, card kanban.Card) (int64, error) {
	payload := createCardRequest{
		Title:        card.Title,
		Description:  card.Description,
		BoardID:      p.boardID,
		ColumnID:     card.ColumnID,
		ExpiresLater: false,
	}
	for _, tag := range card.Tags {
		payload.Tags = append(payload.Tags, tagDTO{Name: tag})
	}

	var created cardResponse
	if err := p.do(ctx, http.MethodPost, "/cards", payload, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("kaiten не вернул id карточки")
	}
	p.logger.Info("карточка создана", zap.Int64("card_id", created.ID), zap.Int64("column_id", card.ColumnID))
	return created.ID, nil
}

func (p *Provider) MoveCard(ctx context.Context, cardID int64, columnID int64) error {
	path := fmt.Sprintf("/cards/%d", cardID)
	if err := p.do(ctx, http.MethodPatch, path, moveCardRequest{ColumnID: columnID}, nil); err != nil {
		return err
	}
	p.logger.Info("карточка перенесена", zap.Int64("card_id", cardID), zap.Int64("column_id", columnID))
	return nil
}
