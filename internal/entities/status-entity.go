package entities

import (
	"fmt"

	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

// OrderStatusName - этап жизненного цикла заказа.
type OrderStatusName string

const (
	StatusWaitingForCapture OrderStatusName = "waiting_for_capture"
	StatusNew               OrderStatusName = "new"
	StatusCourierPickup     OrderStatusName = "courier_pickup"
	StatusPickedUp          OrderStatusName = "picked_up"
	StatusWashing           OrderStatusName = "washing"
	StatusDrying            OrderStatusName = "drying"
	StatusIroning           OrderStatusName = "ironing"
	StatusPacking           OrderStatusName = "packing"
	StatusCourierDelivery   OrderStatusName = "courier_delivery"
	StatusDelivered         OrderStatusName = "delivered"
	StatusCanceled          OrderStatusName = "canceled"
)

// AllOrderStatuses - полный упорядоченный набор статусов.
var AllOrderStatuses = []OrderStatusName{
	StatusWaitingForCapture,
	StatusNew,
	StatusCourierPickup,
	StatusPickedUp,
	StatusWashing,
	StatusDrying,
	StatusIroning,
	StatusPacking,
	StatusCourierDelivery,
	StatusDelivered,
	StatusCanceled,
}

var statusTitles = map[OrderStatusName]string{
	StatusWaitingForCapture: "Ожидает оплаты",
	StatusNew:               "Новый",
	StatusCourierPickup:     "Курьер едет за вещами",
	StatusPickedUp:          "Вещи забраны",
	StatusWashing:           "Стирка",
	StatusDrying:            "Сушка",
	StatusIroning:           "Глажка",
	StatusPacking:           "Упаковка",
	StatusCourierDelivery:   "Курьер везёт вещи",
	StatusDelivered:         "Доставлен",
	StatusCanceled:          "Отменён",
}

func (s OrderStatusName) Title() string {
	if title, ok := statusTitles[s]; ok {
		return title
	}
	return string(s)
}

func ParseOrderStatus(raw string) (OrderStatusName, error) {
	s := OrderStatusName(raw)
	if _, ok := statusTitles[s]; !ok {
		return "", fmt.Errorf("%q: %w", raw, apperrors.ErrUnknownStatus)
	}
	return s, nil
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentWaitingForCapture PaymentStatus = "waiting_for_capture"
	PaymentSucceeded         PaymentStatus = "succeeded"
	PaymentCanceled          PaymentStatus = "canceled"
)

// Actor - кто изменил статус, пишется в историю.
type Actor string

const (
	ActorClient  Actor = "client"
	ActorSystem  Actor = "system"
	ActorManager Actor = "manager"
)
