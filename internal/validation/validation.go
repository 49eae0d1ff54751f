// Package validation runs the form checks of the client on struct tags and
// reports the first failure as an *apperr.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"social-explore-client/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so field names match the backend's
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Messages maps "field.tag" or "field" to the text shown when that check
// fails. A message may hold one verb, filled with the rejected value.
type Messages map[string]string

// Struct validates s. Fields are checked in declaration order and only the
// first failure is returned.
func Struct(s any, msgs Messages) error {
	return translate(validate.Struct(s), "", msgs)
}

// Var validates a single value under the name field
func Var(field string, value any, tag string, msgs Messages) error {
	return translate(validate.Var(value, tag), field, msgs)
}

func translate(err error, field string, msgs Messages) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	fe := fieldErrs[0]
	name := fe.Field()
	if field != "" {
		name = field
	}

	msg, ok := msgs[name+"."+fe.Tag()]
	if !ok {
		msg, ok = msgs[name]
	}
	if !ok {
		return apperr.NewValidation(name, defaultMessage(name, fe))
	}
	if strings.Contains(msg, "%") {
		msg = fmt.Sprintf(msg, fe.Value())
	}
	return apperr.NewValidation(name, msg)
}

func defaultMessage(name string, fe validator.FieldError) string {
	label := strings.ReplaceAll(name, "_", " ")
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " is not a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s does not match %s", label, strings.ToLower(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}
