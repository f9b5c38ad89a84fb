package dto

import "github.com/Lightthouse/stirki/internal/entities"

// UpdateOrderStatusDTO - смена статуса менеджером.
type UpdateOrderStatusDTO struct {
	Status        string  `json:"status" validate:"required"`
	PaymentStatus *string `json:"payment_status,omitempty" validate:"omitempty,oneof=pending waiting_for_capture succeeded canceled"`
}

type OrderListDTO struct {
	Items      []entities.Order `json:"items"`
	Pagination Pagination       `json:"pagination"`
}
