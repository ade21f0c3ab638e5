// Package validate runs struct tag validation and reports the failures as a
// flat list of field errors.
package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()

	// report json names so the messages match the request payload
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimals compare as numbers for gt, gte and friends
	val.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		d, ok := f.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		n, _ := d.Float64()
		return n
	}, decimal.Decimal{})

	if err := val.RegisterValidation("scale", maxScale); err != nil {
		panic(err)
	}

	return val
}

// maxScale checks that a decimal field has at most param fractional digits.
// The field is read from its parent since the custom type func hands rules
// a float.
func maxScale(fl validator.FieldLevel) bool {
	digits, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	f := reflect.Indirect(fl.Parent())
	if f.Kind() != reflect.Struct {
		return false
	}
	f = reflect.Indirect(f.FieldByName(fl.StructFieldName()))
	if !f.IsValid() {
		return true
	}

	d, ok := f.Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	return d.Exponent() >= -int32(digits)
}

// Struct validates s and returns nil when it is valid.
func Struct(s interface{}) Errors {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{{Field: "", Message: err.Error()}}
	}

	errs := make(Errors, 0, len(ves))
	for _, fe := range ves {
		errs = append(errs, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return errs
}

// fieldPath drops the top level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "scale":
		return fmt.Sprintf("must have at most %s decimal places", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
