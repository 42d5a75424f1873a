package newsletter

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerr "inflections/internal/domain/errors"
)

// mailboxPattern accepts "local@domain.tld": no whitespace, exactly one
// separator, and a dot in the domain.
var mailboxPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Request struct {
	Email string `json:"email" validate:"required,max=254,mailbox"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		return mailboxPattern.MatchString(fl.Field().String())
	})
	return v
}

// Normalize lowercases and trims an address before it is validated or stored.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the syntax of an already normalised address.
func Validate(email string) error {
	err := validate.Struct(Request{Email: email})
	if err == nil {
		return nil
	}
	var ve domainerr.ValidationError
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		ve.Add("email", err.Error())
		return ve
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			ve.Add("email", "email is required")
		case "max":
			ve.Add("email", "email is too long")
		default:
			ve.Add("email", "valid email is required")
		}
	}
	return ve
}
