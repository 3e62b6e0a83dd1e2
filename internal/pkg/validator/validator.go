package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"sportsequip/internal/pkg/apperr"
)

var (
	validate   *validator.Validate
	phoneRegex = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

func init() {
	validate = validator.New()
	configure(validate)

	// gin binds with its own engine; teach it the same names and rules.
	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(engine)
	}
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// Validate checks struct tags and returns nil or a validation error.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return Translate(err)
	}
	return nil
}

// Translate converts binding and validation failures into a client error.
func Translate(err error) *apperr.Error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperr.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: message(fe)})
		}
		return apperr.Validation("Validation failed", fields...)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return apperr.Validation("Invalid request body", apperr.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be %s", typeErr.Type),
		})
	case errors.As(err, &syntaxErr):
		return apperr.Validation("Malformed JSON body")
	}
	return apperr.Validation("Invalid request body")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "phone":
		return "must be a valid phone number"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("cannot exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
