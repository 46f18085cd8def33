// Package validate checks request structs with go-playground/validator tags
// and then runs the struct's own Validate method for rules tags cannot express.
// Errors are reported with JSON field paths, e.g. "review.written_review".
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/truetone/api/internal/model"
)

// Validator is implemented by requests with cross-field rules
type Validator interface {
	Validate() []model.FieldError
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns every field error, tag rules first.
// s must be a pointer to a struct or a struct.
func Struct(s any) []model.FieldError {
	var fieldErrors []model.FieldError

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []model.FieldError{{Field: "body", Message: err.Error()}}
		}
		for _, fe := range verrs {
			fieldErrors = append(fieldErrors, model.FieldError{
				Field:   fieldPath(fe),
				Message: msgForTag(fe),
			})
		}
	}

	if v, ok := s.(Validator); ok {
		fieldErrors = append(fieldErrors, v.Validate()...)
	}

	return fieldErrors
}

// Problem validates s and returns a 422 problem, or nil when s is valid
func Problem(s any) *model.ProblemDetails {
	if errs := Struct(s); len(errs) > 0 {
		return model.NewValidationError(errs)
	}
	return nil
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
