package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lightthouse/stirki/internal/pricing"
)

// Session - явный контекст диалога одного чата. Хранится между апдейтами
// целиком, поэтому после Reset ни одно поле не переживает перезапуск.
// MessageID - сообщение со статусом оплаты, привязанное к заказу.
type Session struct {
	ChatID        int64             `json:"chat_id"`
	UserID        int64             `json:"user_id"`
	State         State             `json:"state"`
	HasProfile    bool              `json:"has_profile"`
	ClientChanged bool              `json:"client_changed"`
	Phone         string            `json:"phone,omitempty"`
	Name          string            `json:"name,omitempty"`
	StreetID      int64             `json:"street_id,omitempty"`
	StreetName    string            `json:"street_name,omitempty"`
	House         string            `json:"house,omitempty"`
	Apartment     string            `json:"apartment,omitempty"`
	Entrance      string            `json:"entrance,omitempty"`
	Services      pricing.Selection `json:"services,omitempty"`
	OrderID       int64             `json:"order_id,omitempty"`
	OrderTotal    int               `json:"order_total,omitempty"`
	MessageID     int               `json:"message_id,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func NewSession(chatID, userID int64) *Session {
	return &Session{ChatID: chatID, UserID: userID, State: StateInfo, Services: pricing.Selection{}}
}

// Reset возвращает сессию в INFO с пустым контекстом.
func (s *Session) Reset() {
	*s = *NewSession(s.ChatID, s.UserID)
}

func (s *Session) ToJSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}
	return string(data), nil
}

func SessionFromJSON(data string) (*Session, error) {
	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	if s.Services == nil {
		s.Services = pricing.Selection{}
	}
	return &s, nil
}
