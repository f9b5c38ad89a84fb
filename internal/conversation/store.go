package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

const sessionKey = "tg_session:%d"

// SessionStore - хранилище сессий по chat id.
type SessionStore interface {
	// Load возвращает новую сессию в INFO, если сохранённой нет.
	Load(ctx context.Context, chatID, userID int64) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, chatID int64) error
}

// Cache - часть кеш-репозитория, нужная сессиям.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type CacheSessionStore struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheSessionStore(cache Cache, ttl time.Duration, logger *zap.Logger) *CacheSessionStore {
	return &CacheSessionStore{cache: cache, ttl: ttl, logger: logger.Named("sessions")}
}

// Load не возвращает ошибку для повреждённой сессии: ключ удаляется,
// и чат начинает с INFO, как после /start.
func (s *CacheSessionStore) Load(ctx context.Context, chatID, userID int64) (*Session, error) {
	key := fmt.Sprintf(sessionKey, chatID)
	raw, err := s.cache.Get(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && raw == "") {
		return NewSession(chatID, userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки сессии: %w", err)
	}
	session, err := SessionFromJSON(raw)
	if err != nil {
		s.logger.Warn("сессия повреждена, начинаем заново", zap.Int64("chat_id", chatID), zap.Error(err))
		if err := s.cache.Del(ctx, key); err != nil {
			s.logger.Warn("не удалось удалить повреждённую сессию", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		return NewSession(chatID, userID), nil
	}
	if session.UserID == 0 {
		session.UserID = userID
	}
	return session, nil
}

func (s *CacheSessionStore) Save(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now()
	raw, err := session.ToJSON()
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, fmt.Sprintf(sessionKey, session.ChatID), raw, s.ttl)
}

func (s *CacheSessionStore) Delete(ctx context.Context, chatID int64) error {
	return s.cache.Del(ctx, fmt.Sprintf(sessionKey, chatID))
}
