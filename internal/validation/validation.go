// Package validation binds request payloads and turns validator failures
// into a 400 response listing the offending fields.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by payloads with rules that struct tags cannot express.
type Validatable interface {
	Validate() error
}

type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// CustomValidationErrors lets Validate report several field failures at once.
type CustomValidationErrors []FieldError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var (
	once     sync.Once
	validate *validator.Validate
)

func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

func BindAndValidate(c echo.Context, payload any) error {
	if err := c.Bind(payload); err != nil {
		msg := "invalid body"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
		}
		return echo.NewHTTPError(http.StatusBadRequest, msg).SetInternal(err)
	}
	return Validate(payload)
}

// Validate runs struct tag rules and then Validatable.Validate.
func Validate(payload any) error {
	if err := Validator().Struct(payload); err != nil {
		return newValidationError(extract(err))
	}
	if v, ok := payload.(Validatable); ok {
		if err := v.Validate(); err != nil {
			return newValidationError(extract(err))
		}
	}
	return nil
}

func newValidationError(fields []FieldError) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"error":  "Validation failed",
		"fields": fields,
	})
}

func extract(err error) []FieldError {
	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		return custom
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []FieldError{{Field: "body", Error: err.Error()}}
	}

	out := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Error: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "credit_card":
		return "must be a valid card number"
	case "datetime":
		return fmt.Sprintf("must be a date in %s format", fe.Param())
	case "dive":
		return "some items are invalid"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
