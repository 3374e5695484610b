package subscription

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/darshan15062002/stock-analysis/internal/models"
)

// Validation messages returned to clients
const (
	MsgRequired         = "Email and frequency are required fields"
	MsgInvalidEmail     = "Invalid email format"
	MsgInvalidFrequency = "Frequency must be one of: daily, weekly, monthly"
)

var simpleEmailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError is a subscription rejected before anything was stored
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NewValidator returns a validator with the simple_email rule registered
func NewValidator() *validator.Validate {
	v := validator.New()
	// RegisterValidation only fails for an empty tag or a builtin clash
	_ = v.RegisterValidation("simple_email", func(fl validator.FieldLevel) bool {
		return simpleEmailRe.MatchString(fl.Field().String())
	})
	return v
}

// validate maps struct tag failures onto the client messages. Missing fields are reported first.
func validate(v *validator.Validate, sub *models.Subscription) error {
	err := v.Struct(sub)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msg := ""
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			return &ValidationError{Message: MsgRequired}
		case "simple_email":
			if msg == "" {
				msg = MsgInvalidEmail
			}
		case "oneof":
			if msg == "" {
				msg = MsgInvalidFrequency
			}
		}
	}
	if msg == "" {
		msg = fieldErrs[0].Error()
	}
	return &ValidationError{Message: msg}
}
