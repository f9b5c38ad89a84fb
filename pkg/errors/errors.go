package errors

import (
	"fmt"
	"net/http"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")

	// Авторизация
	ErrEmptyAuthHeader   = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader = fmt.Errorf("неверный формат заголовка авторизации")
	ErrUnauthorized      = fmt.Errorf("неавторизован")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// Заказы
	ErrAddressIncomplete  = fmt.Errorf("адрес клиента заполнен не полностью")
	ErrInvalidTransition  = fmt.Errorf("недопустимый переход статуса заказа")
	ErrUnknownStatus      = fmt.Errorf("неизвестный статус заказа")
	ErrPriceNotConfigured = fmt.Errorf("цена услуги не настроена")

	// Канбан
	ErrColumnNotMapped = fmt.Errorf("для статуса не настроена колонка доски")
	ErrQueueFull       = fmt.Errorf("очередь синхронизации переполнена")
	ErrQueueClosed     = fmt.Errorf("очередь синхронизации остановлена")
)

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// HttpError несёт HTTP-код и сообщение для клиента API.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

func NewBadRequestError(message string, err error) *HttpError {
	return NewHttpError(http.StatusBadRequest, message, err, nil)
}
