package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var _ InputValidator = (*Validator)(nil) // ensure Validator implements InputValidator.

// InputValidator checks a decoded client payload.
type InputValidator interface {
	Struct(s interface{}) error
}

// Validator checks client payloads against their `validate` tags
// and reports violations as *ValidationError with json field names.
type Validator struct {
	validate *validator.Validate
	clock    Clocker
}

// NewValidator returns a ready to use Validator. The clock drives
// the `notfuture` rule so the upper year bound moves with time.
func NewValidator(clock Clocker) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	vd := &Validator{validate: v, clock: clock}
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(vd.clock.Now().Year())
	})
	return vd
}

// Struct validates s and converts any violation into a *ValidationError.
func (vd *Validator) Struct(s interface{}) error {
	err := vd.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fes := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		constraint, msg := vd.describe(fe)
		fes = append(fes, FieldError{Field: fe.Field(), Constraint: constraint, Message: msg})
	}
	return NewValidationError(fes...)
}

func (vd *Validator) describe(fe validator.FieldError) (string, string) {
	switch fe.Tag() {
	case "required":
		return "missing", "field required"
	case "min":
		if fe.Kind() == reflect.String {
			return "min_length", fmt.Sprintf("should have at least %s characters", fe.Param())
		}
		return "greater_than_equal", "should be greater than or equal to " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "max_length", fmt.Sprintf("should have at most %s characters", fe.Param())
		}
		return "less_than_equal", "should be less than or equal to " + fe.Param()
	case "gte":
		return "greater_than_equal", "should be greater than or equal to " + fe.Param()
	case "notfuture":
		return "less_than_equal", fmt.Sprintf("should be less than or equal to %d", vd.clock.Now().Year())
	}
	return fe.Tag(), "failed on the " + fe.Tag() + " rule"
}
