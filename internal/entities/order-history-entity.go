package entities

import "time"

// OrderStatusHistory - строка журнала статусов, только добавление.
type OrderStatusHistory struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	Status    OrderStatusName `json:"status"`
	ChangedAt time.Time       `json:"changed_at"`
	ChangedBy Actor           `json:"changed_by"`
}
