// Package form holds the login form validation schema.
//
// The schema is declared with struct tags on models.Credentials and evaluated
// by go-playground/validator. Each failing field maps to exactly one message:
// the first rule that failed, in tag order.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shindakun/urlshort/internal/models"
)

// Errors maps a field name to its validation message. A field is present
// only while it fails a rule.
type Errors map[string]string

// Any reports whether at least one field is failing
func (e Errors) Any() bool {
	return len(e) > 0
}

// Get returns the message for a field, or "" when it is valid
func (e Errors) Get(field string) string {
	return e[field]
}

// Messages shown for each (field, rule) pair.
var messages = map[string]map[string]string{
	models.FieldEmail: {
		"required": "Email is required",
		"email":    "email must be a valid email",
	},
	models.FieldPassword: {
		"required": "Password is required",
		"min":      "enter minimum 8 char",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so errors line up with form field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate runs the whole schema against c
func Validate(c models.Credentials) Errors {
	errs := Errors{}

	err := validate.Struct(c)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError only happens on programmer error (non-struct input)
		panic(fmt.Sprintf("form: validate credentials: %v", err))
	}

	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = message(field, fe.Tag())
	}
	return errs
}

func message(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return fmt.Sprintf("%s is invalid", field)
}
