package customvalidator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Lightthouse/stirki/pkg/utils"
)

// RegisterCustomValidations регистрирует правила, которые используются
// и в чате, и в HTTP API.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("ru_phone", isRussianPhoneNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("not_command", isNotCommand); err != nil {
		return err
	}
	return nil
}

// New возвращает валидатор с уже зарегистрированными правилами.
func New() (*validator.Validate, error) {
	v := validator.New()
	if err := RegisterCustomValidations(v); err != nil {
		return nil, err
	}
	return v, nil
}

func isRussianPhoneNumber(fl validator.FieldLevel) bool {
	return utils.NormalizeRussianPhoneNumber(fl.Field().String()) != ""
}

func isNotCommand(fl validator.FieldLevel) bool {
	return !strings.HasPrefix(strings.TrimSpace(fl.Field().String()), "/")
}
