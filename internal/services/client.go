package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/repositories"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
	"github.com/Lightthouse/stirki/pkg/utils"
)

const streetCacheTTL = 5 * time.Minute

type ClientServiceInterface interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*entities.Client, error)
	SaveProfile(ctx context.Context, client entities.Client) (*entities.Client, error)
	ListStreets(ctx context.Context) ([]entities.Street, error)
	FindStreet(ctx context.Context, id int64) (*entities.Street, error)
}

type ClientService struct {
	clientRepo repositories.ClientRepositoryInterface
	streetRepo repositories.StreetRepositoryInterface
	logger     *zap.Logger

	streetsMu     sync.RWMutex
	streets       []entities.Street
	streetsLoaded time.Time
}

func NewClientService(
	clientRepo repositories.ClientRepositoryInterface,
	streetRepo repositories.StreetRepositoryInterface,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		streetRepo: streetRepo,
		logger:     logger.Named("client_service"),
	}
}

func (s *ClientService) FindByTelegramID(ctx context.Context, telegramID int64) (*entities.Client, error) {
	return s.clientRepo.FindByTelegramID(ctx, telegramID)
}

// SaveProfile нормализует телефон и сохраняет профиль по telegram_id.
func (s *ClientService) SaveProfile(ctx context.Context, client entities.Client) (*entities.Client, error) {
	phone := utils.NormalizeRussianPhoneNumber(client.Phone)
	if phone == "" {
		return nil, apperrors.NewInvalidInputError("некорректный номер телефона: %q", client.Phone)
	}
	client.Phone = phone

	saved, err := s.clientRepo.Save(ctx, client)
	if err != nil {
		s.logger.Error("ошибка сохранения профиля", zap.Int64("telegram_id", client.TelegramID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("профиль клиента сохранён", zap.Int64("client_id", saved.ID), zap.Int64("telegram_id", saved.TelegramID))
	return saved, nil
}

// ListStreets отдаёт справочник улиц, кешируя его в памяти.
func (s *ClientService) ListStreets(ctx context.Context) ([]entities.Street, error) {
	s.streetsMu.RLock()
	if s.streets != nil && time.Since(s.streetsLoaded) < streetCacheTTL {
		defer s.streetsMu.RUnlock()
		return s.streets, nil
	}
	s.streetsMu.RUnlock()

	streets, err := s.streetRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	s.streetsMu.Lock()
	s.streets = streets
	s.streetsLoaded = time.Now()
	s.streetsMu.Unlock()
	return streets, nil
}

func (s *ClientService) FindStreet(ctx context.Context, id int64) (*entities.Street, error) {
	streets, err := s.ListStreets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range streets {
		if streets[i].ID == id {
			return &streets[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}
