// Package validator adapts go-playground/validator to echo.
package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// fieldMessages are the user-facing messages per failed tag.
var fieldMessages = map[string]string{
	"required": "é obrigatório",
	"email":    "deve ser um email válido",
	"min":      "abaixo do mínimo permitido",
	"max":      "acima do máximo permitido",
	"gte":      "abaixo do mínimo permitido",
	"gt":       "deve ser maior que zero",
	"uuid":     "deve ser um identificador válido",
	"url":      "deve ser uma URL válida",
}

// ValidationError lists the failed fields by their JSON name.
type ValidationError struct {
	Fields map[string]string
	first  string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message()
}

// Message describes the first failed field.
func (e *ValidationError) Message() string {
	return e.first + " " + e.Fields[e.first]
}

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// New creates a validator that reports fields by their json tag.
func New() *CustomValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &CustomValidator{validate: validate}
}

// Validate returns a *ValidationError when i breaks a rule.
func (cv *CustomValidator) Validate(i any) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.WithStack(err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		message, ok := fieldMessages[fe.Tag()]
		if !ok {
			message = "é inválido"
		}
		out.Fields[fe.Field()] = message
		if out.first == "" {
			out.first = fe.Field()
		}
	}

	return out
}
