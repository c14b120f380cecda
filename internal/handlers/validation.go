package handlers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

var phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]{7,20}$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// validationMessage turns the first validator error into a client-facing
// message.
func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fieldErr := errs[0]
		field := strings.ToLower(fieldErr.Field())
		switch fieldErr.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", field)
		case "email":
			return fmt.Sprintf("%s must be a valid email address", field)
		case "phone":
			return fmt.Sprintf("%s must be a valid phone number", field)
		case "min":
			return fmt.Sprintf("%s must be at least %s", field, fieldErr.Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s", field, fieldErr.Param())
		case "oneof":
			return fmt.Sprintf("%s must be one of: %s", field, fieldErr.Param())
		case "gte":
			return fmt.Sprintf("%s must be at least %s", field, fieldErr.Param())
		case "gt":
			return fmt.Sprintf("%s must be greater than %s", field, fieldErr.Param())
		default:
			return fmt.Sprintf("%s is invalid", field)
		}
	}
	return "Invalid request body"
}
