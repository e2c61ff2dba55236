package api

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tendant/simple-account/pkg/errors"
)

const (
	MinPasswordLength = 6
	// MaxPasswordLength is in bytes; bcrypt rejects longer input.
	MaxPasswordLength = 72
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// validateRequest checks the validate tags of req and reports the first
// failing field as INVALID_INPUT.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return errors.InternalWrap(err, "failed to validate request")
	}
	fe := fieldErrs[0]
	return errors.InvalidInput(fe.Field(), reason(fe))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a uuid"
	case "min":
		return fmt.Sprintf("must have at least %s characters", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("must have at most %s bytes", fe.Param())
	}
	return "is invalid"
}
