package telegram

import (
	"context"
	"errors"

	"github.com/Lightthouse/stirki/internal/conversation"
	"github.com/Lightthouse/stirki/pkg/telegram"
)

// Messenger переводит ответы диалога в вызовы Bot API.
type Messenger struct {
	tg telegram.ServiceInterface
}

func NewMessenger(tg telegram.ServiceInterface) *Messenger {
	return &Messenger{tg: tg}
}

func (m *Messenger) Send(ctx context.Context, chatID int64, msg conversation.Message) (int, error) {
	return m.tg.SendMessage(ctx, chatID, msg.Text, messageOptions(msg)...)
}

// Edit заменяет текст уже отправленного сообщения. У отредактированного
// сообщения остаётся только inline-клавиатура.
func (m *Messenger) Edit(ctx context.Context, chatID int64, messageID int, msg conversation.Message) error {
	if messageID == 0 {
		return errors.New("не задан id сообщения для редактирования")
	}
	return m.tg.EditMessageText(ctx, chatID, messageID, msg.Text, messageOptions(msg)...)
}

func (m *Messenger) AnswerCallback(ctx context.Context, callbackID string) error {
	return m.tg.AnswerCallbackQuery(ctx, callbackID, "")
}

func messageOptions(msg conversation.Message) []telegram.MessageOption {
	var opts []telegram.MessageOption

	switch {
	case len(msg.Inline) > 0:
		rows := make([][]telegram.InlineKeyboardButton, 0, len(msg.Inline))
		for _, row := range msg.Inline {
			buttons := make([]telegram.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, telegram.InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
			}
			rows = append(rows, buttons)
		}
		opts = append(opts, telegram.WithKeyboard(rows))
	case msg.RequestContact != "":
		opts = append(opts, telegram.WithContactRequest(msg.RequestContact))
	case len(msg.Reply) > 0:
		rows := make([][]telegram.ReplyKeyboardButton, 0, len(msg.Reply))
		for _, row := range msg.Reply {
			buttons := make([]telegram.ReplyKeyboardButton, 0, len(row))
			for _, text := range row {
				buttons = append(buttons, telegram.ReplyKeyboardButton{Text: text})
			}
			rows = append(rows, buttons)
		}
		opts = append(opts, telegram.WithReplyKeyboard(rows))
	case msg.RemoveKeyboard:
		opts = append(opts, telegram.WithRemoveKeyboard())
	}

	if msg.ReplyTo != 0 {
		opts = append(opts, telegram.WithReplyTo(msg.ReplyTo))
	}
	return opts
}
