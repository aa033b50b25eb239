// Package form implements the create/edit user form: its state, its
// validation schema and its HTML rendering.
package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names as they appear in requests, errors and rendered inputs.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// User-facing validation messages.
const (
	MsgRequired     = "Campo obrigatório"
	MsgInvalidEmail = "Email inválido"
	MsgInvalid      = "Valor inválido"
)

// UserFormValues holds the values edited by the form.
type UserFormValues struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FieldErrors maps a field name to its error message.
// A nil or empty FieldErrors means the values are valid.
type FieldErrors map[string]string

// Has reports whether the field has an error.
func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json name so errors line up with inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks values against the form schema and returns one message
// per failing field. Rules on a field are checked in order, so a missing
// email reports MsgRequired rather than MsgInvalidEmail.
func Validate(values UserFormValues) FieldErrors {
	err := validate.Struct(values)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{FieldName: MsgInvalid}
	}

	errs := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		errs[fe.Field()] = messageFor(fe.Tag())
	}
	return errs
}

func messageFor(tag string) string {
	switch tag {
	case "required":
		return MsgRequired
	case "email":
		return MsgInvalidEmail
	default:
		return MsgInvalid
	}
}
