package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Client - профиль клиента, ключ - telegram_id.
type Client struct {
	ID           int64       `json:"id"`
	TelegramID   int64       `json:"telegram_id"`
	Name         null.String `json:"name"`
	Phone        string      `json:"phone"`
	StreetID     null.Int64  `json:"street_id"`
	StreetName   null.String `json:"street_name"`
	House        string      `json:"house"`
	Apartment    null.String `json:"apartment"`
	Entrance     null.String `json:"entrance"`
	Floor        null.String `json:"floor"`
	Comment      null.String `json:"comment"`
	TotalOrders  int         `json:"total_orders"`
	RegisteredAt time.Time   `json:"registered_at"`
}

// HasAddress - заполнены ли улица и дом.
func (c *Client) HasAddress() bool {
	return c.StreetID.Valid && c.House != ""
}
