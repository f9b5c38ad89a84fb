package conversation

import "context"

type Button struct {
	Text string
	Data string
}

// Message - ответ бота без привязки к транспорту.
type Message struct {
	Text           string
	Inline         [][]Button
	Reply          [][]string
	RequestContact string
	RemoveKeyboard bool
	ReplyTo        int
}

// Messenger отправляет ответы в чат.
type Messenger interface {
	// Send возвращает id отправленного сообщения.
	Send(ctx context.Context, chatID int64, msg Message) (int, error)
	// Edit заменяет текст отправленного ранее сообщения.
	Edit(ctx context.Context, chatID int64, messageID int, msg Message) error
	AnswerCallback(ctx context.Context, callbackID string) error
}
