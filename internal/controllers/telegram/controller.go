package telegram

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/conversation"
	"github.com/Lightthouse/stirki/pkg/config"
	"github.com/Lightthouse/stirki/pkg/telegram"
)

const (
	secretHeader    = "X-Telegram-Bot-Api-Secret-Token"
	webhookPath     = "/telegram/webhook"
	maxMessageAge   = 2 * time.Minute
	updateDedupTTL  = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
	answerTimeout   = 5 * time.Second
	registerTimeout = 15 * time.Second
)

// EventSubmitter ставит событие в очередь чата и не ждёт обработки.
type EventSubmitter interface {
	Submit(ev conversation.Event) error
}

type TelegramController struct {
	events       EventSubmitter
	tgService    telegram.ServiceInterface
	deduplicator *UpdateDeduplicator
	cfg          config.TelegramConfig
	logger       *zap.Logger
}

func NewTelegramController(
	events EventSubmitter,
	tgService telegram.ServiceInterface,
	cache UpdateCache,
	cfg config.TelegramConfig,
	logger *zap.Logger,
) *TelegramController {
	logger = logger.Named("telegram_webhook")
	return &TelegramController{
		events:       events,
		tgService:    tgService,
		deduplicator: NewUpdateDeduplicator(cache, updateDedupTTL, logger),
		cfg:          cfg,
		logger:       logger,
	}
}

// HandleTelegramWebhook разбирает апдейт и сразу отвечает 200.
// Сам диалог обрабатывается диспетчером в фоне.
func (c *TelegramController) HandleTelegramWebhook(ctx echo.Context) error {
	if c.cfg.WebhookSecret != "" {
		got := ctx.Request().Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(c.cfg.WebhookSecret)) != 1 {
			c.logger.Warn("апдейт с неверным секретом", zap.String("remote_ip", ctx.RealIP()))
			return ctx.NoContent(http.StatusUnauthorized)
		}
	}

	var update TelegramUpdate
	if err := ctx.Bind(&update); err != nil {
		return ctx.NoContent(http.StatusOK)
	}

	if !isMessageRecent(&update) {
		return ctx.NoContent(http.StatusOK)
	}

	if !c.deduplicator.TryAcquire(ctx.Request().Context(), update.UpdateID) {
		c.logger.Debug("повторный апдейт", zap.Int64("update_id", update.UpdateID))
		return ctx.NoContent(http.StatusOK)
	}

	ev, ok := toEvent(&update)
	if !ok {
		return ctx.NoContent(http.StatusOK)
	}

	if err := c.events.Submit(ev); err != nil {
		c.logger.Warn("событие отброшено",
			zap.Int64("chat_id", ev.ChatID),
			zap.Int64("update_id", update.UpdateID),
			zap.Error(err))
		if ev.CallbackID != "" {
			go c.answerCallback(ev.CallbackID)
		}
	}
	return ctx.NoContent(http.StatusOK)
}

func (c *TelegramController) answerCallback(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
	defer cancel()
	if err := c.tgService.AnswerCallbackQuery(ctx, id, ""); err != nil {
		c.logger.Debug("не удалось ответить на callback", zap.Error(err))
	}
}

// RegisterWebhook сообщает Telegram адрес вебхука. Без WebhookURL ничего не делает.
func (c *TelegramController) RegisterWebhook(ctx context.Context) error {
	if c.cfg.WebhookURL == "" {
		c.logger.Info("TELEGRAM_WEBHOOK_URL не задан, вебхук не регистрируется")
		return nil
	}
	url := strings.TrimSuffix(c.cfg.WebhookURL, "/") + webhookPath

	ctx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()

	if err := c.tgService.SetWebhook(ctx, url, c.cfg.WebhookSecret); err != nil {
		return err
	}
	c.logger.Info("вебхук Telegram зарегистрирован", zap.String("url", url))
	return nil
}

// StartCleanup чистит локальную таблицу дедупликации до отмены ctx.
func (c *TelegramController) StartCleanup(ctx context.Context) {
	c.deduplicator.Cleanup(ctx, cleanupInterval)
}

// WebhookPath - путь, на который нужно повесить HandleTelegramWebhook.
func WebhookPath() string { return webhookPath }

// Нажатие кнопки всегда свежее: дата в callback - это дата сообщения бота.
// Старые текстовые сообщения после простоя бота не обрабатываем.
func isMessageRecent(update *TelegramUpdate) bool {
	if update.CallbackQuery != nil {
		return true
	}
	if update.Message != nil && update.Message.Date > 0 {
		if time.Since(time.Unix(update.Message.Date, 0)) > maxMessageAge {
			return false
		}
	}
	return true
}

func toEvent(update *TelegramUpdate) (conversation.Event, bool) {
	if q := update.CallbackQuery; q != nil {
		ev := conversation.Event{
			ChatID:     q.From.ID,
			UserID:     q.From.ID,
			Kind:       conversation.EventCallback,
			Data:       q.Data,
			CallbackID: q.ID,
		}
		if q.Message != nil {
			ev.ChatID = q.Message.Chat.ID
			ev.MessageID = q.Message.MessageID
		}
		return ev, true
	}

	msg := update.Message
	if msg == nil || msg.Chat.ID == 0 {
		return conversation.Event{}, false
	}
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	if msg.Contact != nil {
		ev := conversation.Event{
			ChatID:    msg.Chat.ID,
			UserID:    userID,
			Kind:      conversation.EventContact,
			MessageID: msg.MessageID,
		}
		// Чужой контакт не принимаем: событие без телефона диалог отклонит.
		if msg.Contact.UserID == 0 || msg.Contact.UserID == userID {
			ev.Phone = msg.Contact.PhoneNumber
		}
		return ev, true
	}

	if strings.TrimSpace(msg.Text) == "" {
		return conversation.Event{}, false
	}
	return conversation.NewTextEvent(msg.Chat.ID, userID, msg.MessageID, msg.Text), true
}
