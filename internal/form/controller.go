package form

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned when input targets a field the form does not have.
var ErrUnknownField = errors.New("unknown form field")

// Labels shown by the form.
const (
	HeadingCreate   = "Criar usuário"
	HeadingEdit     = "Editar usuário"
	LabelCreate     = "Criar"
	LabelSave       = "Salvar"
	LabelSubmitting = "Enviando"
	CancelHref      = "/student"
)

// Props configures a Controller. It mirrors what a page passes to the form
// on every render.
type Props struct {
	// InitialValues pre-populates the fields. They are applied once per
	// distinct pointer, so passing a fresh pointer on every SetProps call
	// resets the fields every time.
	InitialValues *UserFormValues
	// OnSubmit receives the values after they pass validation.
	OnSubmit func(UserFormValues)
	// IsLoading disables submission and swaps the submit label.
	IsLoading bool
	// LoadingValues hides the fields behind placeholders while initial
	// values are being fetched.
	LoadingValues bool
}

// Controller owns the state of one form instance. It is not safe for
// concurrent use.
type Controller struct {
	props     Props
	values    UserFormValues
	errors    FieldErrors
	applied   *UserFormValues
	submitted bool
}

// New creates a Controller, taking default values from props.InitialValues.
func New(props Props) *Controller {
	c := &Controller{props: props}
	c.applyInitialValues()
	return c
}

// SetProps replaces the props, as on a re-render. Initial values are only
// re-applied when the InitialValues pointer changed. Existing field errors
// are kept.
func (c *Controller) SetProps(props Props) {
	c.props = props
	c.applyInitialValues()
}

func (c *Controller) applyInitialValues() {
	if c.props.InitialValues == c.applied {
		return
	}
	c.applied = c.props.InitialValues
	if c.applied != nil {
		c.values = *c.applied
	}
}

// SetField records user input for one field. Once a submit has been
// attempted, the changed field is re-validated immediately.
func (c *Controller) SetField(name, value string) error {
	switch name {
	case FieldName:
		c.values.Name = value
	case FieldEmail:
		c.values.Email = value
	case FieldPassword:
		c.values.Password = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	if c.submitted {
		c.revalidate(name)
	}
	return nil
}

func (c *Controller) revalidate(field string) {
	errs := Validate(c.values)
	msg, failed := errs[field]
	if !failed {
		delete(c.errors, field)
		return
	}
	if c.errors == nil {
		c.errors = make(FieldErrors)
	}
	c.errors[field] = msg
}

// Submit validates the current values. When they are valid the OnSubmit
// callback is invoked once with the values unchanged and Submit returns
// true. Invalid values are recorded as field errors and the callback is
// not invoked. Submitting while IsLoading is set does nothing.
func (c *Controller) Submit() bool {
	if c.props.IsLoading {
		return false
	}
	c.submitted = true

	if errs := Validate(c.values); len(errs) > 0 {
		c.errors = errs
		return false
	}

	c.errors = nil
	if c.props.OnSubmit != nil {
		c.props.OnSubmit(c.values)
	}
	return true
}

// Values returns a copy of the current values.
func (c *Controller) Values() UserFormValues {
	return c.values
}

// Errors returns a copy of the current field errors.
func (c *Controller) Errors() FieldErrors {
	if len(c.errors) == 0 {
		return nil
	}
	out := make(FieldErrors, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// FieldError returns the error message for a field, or "".
func (c *Controller) FieldError(name string) string {
	return c.errors[name]
}

// IsEditing reports whether the form edits an existing user.
func (c *Controller) IsEditing() bool {
	return c.props.InitialValues != nil
}

// IsLoaded reports whether the real fields should be shown.
func (c *Controller) IsLoaded() bool {
	return !c.props.LoadingValues
}

// IsLoading reports whether a submission is in flight.
func (c *Controller) IsLoading() bool {
	return c.props.IsLoading
}

// Heading returns the form title.
func (c *Controller) Heading() string {
	if c.IsEditing() {
		return HeadingEdit
	}
	return HeadingCreate
}

// SubmitLabel returns the text of the submit button.
func (c *Controller) SubmitLabel() string {
	if c.props.IsLoading {
		return LabelSubmitting
	}
	if c.IsEditing() {
		return LabelSave
	}
	return LabelCreate
}

// SubmitDisabled reports whether the submit button is disabled. Field
// errors leave it enabled so the corrected values can be resubmitted.
func (c *Controller) SubmitDisabled() bool {
	return c.props.IsLoading
}
