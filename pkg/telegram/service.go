package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultAPIURL = "https://api.telegram.org"

type ServiceInterface interface {
	// SendMessage возвращает message_id отправленного сообщения.
	SendMessage(ctx context.Context, chatID int64, text string, options ...MessageOption) (int, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, options ...MessageOption) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string, text string) error
	SetWebhook(ctx context.Context, url string, secretToken string) error
}

type Service struct {
	botToken   string
	apiURL     string
	httpClient *http.Client
	debug      bool
	logger     *zap.Logger
}

func NewService(botToken string, debug bool, logger *zap.Logger) ServiceInterface {
	return &Service{
		botToken:   botToken,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		debug:      debug,
		logger:     logger.Named("telegram"),
	}
}

// --- Структуры запросов ---

type sendMessageRequest struct {
	ChatID           int64       `json:"chat_id"`
	Text             string      `json:"text"`
	ParseMode        string      `json:"parse_mode,omitempty"`
	ReplyToMessageID int         `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      interface{} `json:"reply_markup,omitempty"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type ReplyKeyboardButton struct {
	Text           string `json:"text"`
	RequestContact bool   `json:"request_contact,omitempty"`
}

type replyKeyboardMarkup struct {
	Keyboard        [][]ReplyKeyboardButton `json:"keyboard"`
	ResizeKeyboard  bool                    `json:"resize_keyboard"`
	OneTimeKeyboard bool                    `json:"one_time_keyboard,omitempty"`
}

type replyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

type callbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates"`
}

type editMessageTextRequest struct {
	ChatID      int64       `json:"chat_id"`
	MessageID   int         `json:"message_id"`
	Text        string      `json:"text"`
	ParseMode   string      `json:"parse_mode,omitempty"`
	ReplyMarkup interface{} `json:"reply_markup,omitempty"`
}

// --- Опции сообщения ---

type MessageOption func(*sendMessageRequest)

func WithKeyboard(rows [][]InlineKeyboardButton) MessageOption {
	return func(req *sendMessageRequest) {
		if len(rows) > 0 {
			req.ReplyMarkup = inlineKeyboardMarkup{InlineKeyboard: rows}
		}
	}
}

func WithReplyKeyboard(rows [][]ReplyKeyboardButton) MessageOption {
	return func(req *sendMessageRequest) {
		if len(rows) > 0 {
			req.ReplyMarkup = replyKeyboardMarkup{
				Keyboard:       rows,
				ResizeKeyboard: true,
			}
		}
	}
}

// WithContactRequest показывает одну кнопку "поделиться номером".
func WithContactRequest(label string) MessageOption {
	return func(req *sendMessageRequest) {
		req.ReplyMarkup = replyKeyboardMarkup{
			Keyboard:        [][]ReplyKeyboardButton{{{Text: label, RequestContact: true}}},
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
	}
}

func WithRemoveKeyboard() MessageOption {
	return func(req *sendMessageRequest) {
		req.ReplyMarkup = replyKeyboardRemove{RemoveKeyboard: true}
	}
}

func WithReplyTo(messageID int) MessageOption {
	return func(req *sendMessageRequest) {
		req.ReplyToMessageID = messageID
	}
}

func WithHTML() MessageOption {
	return func(req *sendMessageRequest) {
		req.ParseMode = "HTML"
	}
}

// --- Методы API ---

func (s *Service) SendMessage(ctx context.Context, chatID int64, text string, options ...MessageOption) (int, error) {
	reqPayload := &sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	}
	for _, opt := range options {
		opt(reqPayload)
	}

	var sent struct {
		MessageID int `json:"message_id"`
	}
	if err := s.sendRequest(ctx, "sendMessage", reqPayload, &sent); err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (s *Service) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, options ...MessageOption) error {
	if messageID == 0 {
		_, err := s.SendMessage(ctx, chatID, text, options...)
		return err
	}

	tempSendReq := &sendMessageRequest{}
	for _, opt := range options {
		opt(tempSendReq)
	}

	editReq := &editMessageTextRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: tempSendReq.ParseMode,
	}
	// editMessageText принимает только inline-клавиатуру.
	if markup, ok := tempSendReq.ReplyMarkup.(inlineKeyboardMarkup); ok {
		editReq.ReplyMarkup = markup
	}

	return s.sendRequest(ctx, "editMessageText", editReq, nil)
}

func (s *Service) AnswerCallbackQuery(ctx context.Context, callbackQueryID string, text string) error {
	if callbackQueryID == "" {
		return fmt.Errorf("callbackQueryID не может быть пустым")
	}
	return s.sendRequest(ctx, "answerCallbackQuery", callbackQueryRequest{
		CallbackQueryID: callbackQueryID,
		Text:            text,
	}, nil)
}

// SetWebhook регистрирует адрес, на который Telegram будет слать апдейты.
func (s *Service) SetWebhook(ctx context.Context, url string, secretToken string) error {
	if url == "" {
		return fmt.Errorf("адрес вебхука не может быть пустым")
	}
	return s.sendRequest(ctx, "setWebhook", setWebhookRequest{
		URL:            url,
		SecretToken:    secretToken,
		AllowedUpdates: []string{"message", "callback_query"},
	}, nil)
}

func (s *Service) sendRequest(ctx context.Context, methodName string, payload interface{}, result interface{}) error {
	if s.botToken == "" {
		return fmt.Errorf("токен Telegram-бота не установлен")
	}

	apiURL := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(s.apiURL, "/"), s.botToken, methodName)

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка сериализации JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса в Telegram: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if s.debug {
		s.logger.Debug("telegram request",
			zap.String("method", methodName),
			zap.ByteString("request", reqBody),
			zap.ByteString("response", body))
	}

	var telegramResp struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description,omitempty"`
		ErrorCode   int             `json:"error_code,omitempty"`
		Result      json.RawMessage `json:"result,omitempty"`
	}
	if err := json.Unmarshal(body, &telegramResp); err != nil {
		return fmt.Errorf("ошибка декодирования ответа Telegram API: %w", err)
	}

	if !telegramResp.OK {
		return fmt.Errorf("telegram API ошибка (%s): код %d, описание: %s", methodName, telegramResp.ErrorCode, telegramResp.Description)
	}

	if result != nil && len(telegramResp.Result) > 0 {
		if err := json.Unmarshal(telegramResp.Result, result); err != nil {
			return fmt.Errorf("ошибка декодирования результата %s: %w", methodName, err)
		}
	}
	return nil
}
