package conversation

import "strings"

type EventKind int

const (
	EventText EventKind = iota
	EventContact
	EventCallback
	EventCommand
)

// Event - входящее действие пользователя, уже разобранное транспортом.
type Event struct {
	ChatID     int64
	UserID     int64
	Kind       EventKind
	Text       string
	Phone      string
	Data       string
	CallbackID string
	MessageID  int
}

const (
	CommandStart  = "/start"
	CommandCancel = "/cancel"
	CommandHelp   = "/help"
)

// Command возвращает команду без аргументов и упоминания бота: "/start@bot x" -> "/start".
func (e Event) Command() string {
	if e.Kind != EventCommand {
		return ""
	}
	fields := strings.Fields(e.Text)
	if len(fields) == 0 {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}

// NewTextEvent различает команды и обычный текст.
func NewTextEvent(chatID, userID int64, messageID int, text string) Event {
	kind := EventText
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		kind = EventCommand
	}
	return Event{ChatID: chatID, UserID: userID, Kind: kind, Text: strings.TrimSpace(text), MessageID: messageID}
}
