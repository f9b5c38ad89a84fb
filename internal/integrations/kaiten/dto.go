package kaiten

import "fmt"

type tagDTO struct {
	Name string `json:"name"`
}

type createCardRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	BoardID      int64    `json:"board_id"`
	ColumnID     int64    `json:"column_id"`
	ExpiresLater bool     `json:"expires_later"`
	Tags         []tagDTO `json:"tags,omitempty"`
}

type moveCardRequest struct {
	ColumnID int64 `json:"column_id"`
}

type cardResponse struct {
	ID       int64 `json:"id"`
	ColumnID int64 `json:"column_id"`
}

// APIError - ответ Kaiten с кодом не из 2xx.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kaiten API error %d: %s", e.StatusCode, e.Body)
}
